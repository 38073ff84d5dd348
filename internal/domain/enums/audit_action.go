package enums

type AuditAction string

const (
	AuditActionSubmissionCreated   AuditAction = "SUBMISSION_CREATED"
	AuditActionSubmissionReviewing AuditAction = "SUBMISSION_REVIEWING"
	AuditActionSubmissionApproved  AuditAction = "SUBMISSION_APPROVED"
	AuditActionSubmissionRejected  AuditAction = "SUBMISSION_REJECTED"
	AuditActionModelStatusChanged  AuditAction = "MODEL_STATUS_CHANGED"
	AuditActionModelDeleted        AuditAction = "MODEL_DELETED"
	AuditActionReconcile           AuditAction = "SUBMISSIONS_RECONCILED"
	AuditActionTOTPEnabled         AuditAction = "TOTP_ENABLED"
	AuditActionContentCreated      AuditAction = "CONTENT_CREATED"
	AuditActionTelegramLinked      AuditAction = "TELEGRAM_LINKED"
)
