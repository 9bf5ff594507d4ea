package dto

import "time"

type GetAlertRulesParam struct {
	IDs      []uint
	UserID   *uint
	Symbol   string
	IsActive *bool
	WithUser bool
}

type GetAlertRecordsParam struct {
	UserID uint
	Symbol string
	Limit  int
	Offset int
}

type GetJobRunsParam struct {
	JobName string
	Limit   int
}

type GetLoginAttemptsParam struct {
	Email   string
	Since   time.Time
	Success *bool
}
