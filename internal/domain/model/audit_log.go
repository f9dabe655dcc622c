package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditPhase represents the phase of a payment or refund attempt
type AuditPhase string

const (
	AuditPhaseRequest       AuditPhase = "REQUEST"
	AuditPhaseSuccess       AuditPhase = "SUCCESS"
	AuditPhaseFail          AuditPhase = "FAIL"
	AuditPhaseRefundRequest AuditPhase = "REFUND_REQUEST"
	AuditPhaseRefundSuccess AuditPhase = "REFUND_SUCCESS"
	AuditPhaseRefundFail    AuditPhase = "REFUND_FAIL"
)

// PaymentAuditLog is an append-only record of a payment/refund attempt.
// Rows are written on the audit writer's own database session so they
// survive rollback of the surrounding payment transaction.
type PaymentAuditLog struct {
	ID                     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID                string     `gorm:"not null;size:100;index" json:"order_id"`
	UserID                 uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	GatewayTransactionKey  *string    `gorm:"size:200" json:"gateway_transaction_key,omitempty"`
	Phase                  AuditPhase `gorm:"not null;size:30;index:idx_payment_audit_logs_order_phase" json:"phase"`
	RequestPayload         JSONB      `gorm:"type:jsonb" json:"request_payload,omitempty"`
	ResponsePayload        JSONB      `gorm:"type:jsonb" json:"response_payload,omitempty"`
	FailureReason          *string    `json:"failure_reason,omitempty"`
	ReconciliationRequired bool       `gorm:"not null;default:false" json:"reconciliation_required"`
	LoggedAt               time.Time  `gorm:"default:now();index" json:"logged_at"`
}

// TableName specifies the table name for GORM
func (PaymentAuditLog) TableName() string {
	return "payment_audit_logs"
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}
