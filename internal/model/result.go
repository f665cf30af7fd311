package model

// Stage is a state of the per-ZIP-code processing state machine.
type Stage string

const (
	StageStart                  Stage = "start"
	StageValidated              Stage = "validated"
	StageGeographyResolved      Stage = "geography_resolved"
	StageRepresentativesFetched Stage = "representatives_fetched"
	StageNormalized             Stage = "normalized"
	StagePersisted              Stage = "persisted"
	StageFailed                 Stage = "failed"
)

// Failure reasons recorded on a failed ProcessingResult.
const (
	FailureInvalidZIP        = "invalid zip"
	FailureNoGeography       = "no geography"
	FailureGeographyDown     = "geography unavailable"
	FailureNoRepresentatives = "no representatives"
	FailurePersistence       = "persistence"
)

// ProcessingResult is the transient outcome of running one ZIP code through
// the pipeline. Errors are kept in the order they were recorded.
type ProcessingResult struct {
	ZipCode         string           `json:"zip_code"`
	Geography       *Geography       `json:"geography,omitempty"`
	Representatives []Representative `json:"representatives"`
	Success         bool             `json:"success"`
	Errors          []string         `json:"errors"`
	Stage           Stage            `json:"stage"`
	FailedAt        Stage            `json:"failed_at,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	// Err is the error that moved the result to Failed.
	Err error `json:"-"`
}

// NewProcessingResult starts a result for zip in the Start state.
func NewProcessingResult(zip string) *ProcessingResult {
	return &ProcessingResult{
		ZipCode:         zip,
		Representatives: []Representative{},
		Errors:          []string{},
		Stage:           StageStart,
	}
}

// Advance moves the result to the next non-terminal stage.
func (r *ProcessingResult) Advance(s Stage) {
	r.Stage = s
}

// AddError appends an accumulated error message.
func (r *ProcessingResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Fail moves the result to Failed, remembering the stage it failed from.
// A non-nil err is kept on the result and its message appended to Errors.
func (r *ProcessingResult) Fail(reason string, err error) {
	r.FailedAt = r.Stage
	r.Stage = StageFailed
	r.Reason = reason
	r.Success = false
	r.Err = err
	if err != nil {
		r.AddError(err.Error())
	}
}

// Succeed marks the result as Persisted.
func (r *ProcessingResult) Succeed() {
	r.Stage = StagePersisted
	r.Success = true
}
