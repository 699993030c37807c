package entities

// Severity classifies a validation finding
type Severity string

// Validation severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single validation problem discovered in a bundle
type Finding struct {
	Bundle   string
	Field    string
	Severity Severity
	Message  string
}

// ValidationReport collects findings for one or more bundles
type ValidationReport struct {
	Findings []Finding
}

// Add appends a finding to the report
func (r *ValidationReport) Add(bundle, field string, severity Severity, message string) {
	r.Findings = append(r.Findings, Finding{
		Bundle:   bundle,
		Field:    field,
		Severity: severity,
		Message:  message,
	})
}

// Merge appends all findings from another report
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	r.Findings = append(r.Findings, other.Findings...)
}

// HasErrors reports whether any finding is an error
func (r *ValidationReport) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity findings
func (r *ValidationReport) Errors() []Finding {
	var errs []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}
