package services

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
)

const (
	resumeEnhanceSystemPrompt = "You are an executive resume writer for product managers. Rewrite the resume " +
		"to lead with measurable outcomes, tighten every bullet to one line where possible and keep all facts " +
		"truthful. Return the improved resume in Markdown."

	coverLetterSystemPrompt = "You write concise cover letters for product management roles. Use the resume " +
		"as the only source of facts, mirror the job description's priorities and keep it under 350 words."

	interviewPrepSystemPrompt = "You are a product management interview coach. Produce a preparation plan with " +
		"likely questions grouped by theme, a strong answer outline for each and two questions the candidate " +
		"should ask. Return Markdown."

	linkedInSystemPrompt = "You review LinkedIn profiles of product managers. Score the headline, about section " +
		"and experience from 1 to 10, explain each score briefly and suggest concrete rewrites. Return Markdown."

	resumeParseSystemPrompt = "You extract structured data from resumes. Return a JSON object with keys: name, " +
		"email, phone, headline, years_of_experience, skills (array), experience (array of {company, title, " +
		"start, end, highlights}), education (array of {school, degree, year}). Use null for unknown values."
)

// buildToolPrompt checks the inputs an operation needs and renders its prompt
func buildToolPrompt(operation models.ToolOperation, in dto.ToolInput) (CompletionRequest, error) {
	var missing ValidationErrors
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, ValidationError{Field: "input." + field, Message: "is required", Rule: "required"})
		}
	}

	var req CompletionRequest
	switch operation {
	case models.OperationResumeEnhance:
		require("resume_text", in.ResumeText)
		req = CompletionRequest{
			System:      resumeEnhanceSystemPrompt,
			Prompt:      section("Target role", in.TargetRole) + section("Resume", in.ResumeText),
			Temperature: 0.4,
		}
	case models.OperationCoverLetter:
		require("resume_text", in.ResumeText)
		require("job_description", in.JobDescription)
		req = CompletionRequest{
			System: coverLetterSystemPrompt,
			Prompt: section("Company", in.CompanyName) +
				section("Job description", in.JobDescription) +
				section("Resume", in.ResumeText),
			Temperature: 0.6,
		}
	case models.OperationInterviewPrep:
		require("target_role", in.TargetRole)
		req = CompletionRequest{
			System: interviewPrepSystemPrompt,
			Prompt: section("Target role", in.TargetRole) +
				section("Experience level", in.ExperienceLevel) +
				section("Company", in.CompanyName) +
				section("Job description", in.JobDescription),
			Temperature: 0.5,
		}
	case models.OperationLinkedInAnalysis:
		if strings.TrimSpace(in.ProfileText) == "" && strings.TrimSpace(in.ProfileURL) == "" {
			missing = append(missing, ValidationError{
				Field:   "input.profile_text",
				Message: "profile_text or profile_url is required",
				Rule:    "required_without",
			})
		}
		req = CompletionRequest{
			System: linkedInSystemPrompt,
			Prompt: section("Profile URL", in.ProfileURL) +
				section("Profile", in.ProfileText) +
				section("Target role", in.TargetRole),
			Temperature: 0.3,
		}
	default:
		return CompletionRequest{}, fmt.Errorf("%s: %w", operation, ErrUnknownOperation)
	}

	if len(missing) > 0 {
		return CompletionRequest{}, missing
	}
	return req, nil
}

func section(title, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	return fmt.Sprintf("## %s\n%s\n\n", title, body)
}
