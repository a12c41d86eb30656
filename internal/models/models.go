package models

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&AssessmentModule{},
		&AssessmentQuestion{},
		&QuestionOption{},
		&AssessmentSession{},
		&AssessmentResponse{},
		&ToolPurchase{},
	}
}
