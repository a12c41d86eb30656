package handlers

import (
	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/jinzhu/copier"
)

func toModuleResponses(modules []*models.AssessmentModule) []dto.ModuleResponse {
	out := make([]dto.ModuleResponse, 0, len(modules))
	for _, module := range modules {
		var resp dto.ModuleResponse
		_ = copier.Copy(&resp, module)
		resp.QuestionCount = len(module.Questions)
		out = append(out, resp)
	}
	return out
}

// toQuestionResponse exposes a catalog question without its scoring maps
func toQuestionResponse(q *services.CatalogQuestion) dto.QuestionResponse {
	var resp dto.QuestionResponse
	_ = copier.Copy(&resp, q.AssessmentQuestion)

	resp.Dimensions = q.Dimensions
	if resp.Dimensions == nil {
		resp.Dimensions = []string{}
	}
	if resp.Options == nil {
		resp.Options = []dto.OptionResponse{}
	}
	return resp
}

func toSessionResponse(session *models.AssessmentSession) dto.SessionResponse {
	var resp dto.SessionResponse
	_ = copier.Copy(&resp, session)
	return resp
}

func toStateResponse(state *services.AssessmentState) dto.AssessmentStateResponse {
	questions := make([]dto.QuestionResponse, 0, len(state.Questions))
	for _, q := range state.Questions {
		questions = append(questions, toQuestionResponse(q))
	}

	scores := map[string]float64(state.Scores)
	if scores == nil {
		scores = map[string]float64{}
	}

	return dto.AssessmentStateResponse{
		Session:         toSessionResponse(state.Session),
		Questions:       questions,
		DimensionScores: scores,
		Progress:        state.Progress,
		AnsweredCount:   state.AnsweredCount,
		ShowSignupGate:  state.ShowSignupGate,
	}
}

func toPurchaseResponse(purchase *models.ToolPurchase) dto.PurchaseResponse {
	var resp dto.PurchaseResponse
	_ = copier.Copy(&resp, purchase)
	return resp
}

func toVerifyResponse(grant *services.AccessGrant) dto.VerifyAccessResponse {
	expiresAt := grant.Purchase.ExpiresAt
	return dto.VerifyAccessResponse{
		Valid:      true,
		PurchaseID: grant.Purchase.ID,
		ToolType:   grant.Purchase.ToolType,
		ExpiresAt:  &expiresAt,
		UsageCount: grant.Purchase.UsageCount,
	}
}
