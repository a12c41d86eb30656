package models

import (
	"time"
)

type ToolType string

const (
	ToolResumeSuite   ToolType = "resume_suite"
	ToolInterviewPrep ToolType = "interview_prep"
	ToolLinkedInSuite ToolType = "linkedin_suite"
)

var ToolTypes = []ToolType{ToolResumeSuite, ToolInterviewPrep, ToolLinkedInSuite}

func (t ToolType) IsValid() bool {
	for _, known := range ToolTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ToolOperation is a single paid action exposed to callers
type ToolOperation string

const (
	OperationResumeEnhance    ToolOperation = "resume_enhance"
	OperationCoverLetter      ToolOperation = "cover_letter"
	OperationResumeParse      ToolOperation = "resume_parse"
	OperationInterviewPrep    ToolOperation = "interview_prep"
	OperationLinkedInAnalysis ToolOperation = "linkedin_analysis"
)

var operationToolTypes = map[ToolOperation]ToolType{
	OperationResumeEnhance:    ToolResumeSuite,
	OperationCoverLetter:      ToolResumeSuite,
	OperationResumeParse:      ToolResumeSuite,
	OperationInterviewPrep:    ToolInterviewPrep,
	OperationLinkedInAnalysis: ToolLinkedInSuite,
}

// RequiredToolType returns the entitlement needed to run the operation
func (o ToolOperation) RequiredToolType() (ToolType, bool) {
	t, ok := operationToolTypes[o]
	return t, ok
}

type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseActive   PurchaseStatus = "active"
	PurchaseExpired  PurchaseStatus = "expired"
	PurchaseRefunded PurchaseStatus = "refunded"
)

// ToolPurchase is an entitlement grant for one paid tool. Expiry is checked at read
// time; rows are never deleted.
type ToolPurchase struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Email       string         `json:"email" gorm:"not null;size:255;index:idx_tool_purchase_email_type,priority:1"`
	ToolType    ToolType       `json:"tool_type" gorm:"not null;size:32;index:idx_tool_purchase_email_type,priority:2"`
	Status      PurchaseStatus `json:"status" gorm:"not null;size:16;default:pending;index"`
	AccessToken string         `json:"-" gorm:"uniqueIndex;not null;size:64"`
	PurchasedAt time.Time      `json:"purchased_at" gorm:"not null"`
	ExpiresAt   time.Time      `json:"expires_at" gorm:"not null;index"`
	UsageCount  int            `json:"usage_count" gorm:"not null;default:0"`
	LastUsedAt  *time.Time     `json:"last_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ToolPurchase) TableName() string {
	return "tool_purchases"
}

// IsExpiredAt reports whether the grant has lapsed at the given instant
func (p *ToolPurchase) IsExpiredAt(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}
