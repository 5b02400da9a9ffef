package criteria

// Registry is the ordered collection of top-level suites awaiting execution.
// It is populated during the load phase and run once afterwards.
type Registry struct {
	suites []*Suite
	report  *Report
	policy  Policy
	running bool
}

// NewRegistry returns an empty registry. Only the report and policy options
// apply to a Registry.
func NewRegistry(opts ...Option) *Registry {
	s := newSettings(opts)
	return newRegistry(s)
}

func newRegistry(s settings) *Registry {
	return &Registry{report: s.report, policy: s.policy}
}

// Criteria creates a top-level suite and appends it to the registry.
// Names need not be unique. It panics with ErrRegistrationClosed while the
// registry is running.
func (r *Registry) Criteria(name string) *Suite {
	if r.running {
		panic(ErrRegistrationClosed)
	}
	s := newSuite(r, name, 0)
	r.suites = append(r.suites, s)
	return s
}

// Suite is an alias for Criteria.
func (r *Registry) Suite(name string) *Suite { return r.Criteria(name) }

// Suites returns the top-level suites in registration order.
func (r *Registry) Suites() []*Suite { return r.suites }

// Report returns the report suites print to.
func (r *Registry) Report() *Report { return r.report }

// Run runs every top-level suite in registration order, stopping at the
// first propagated hook error.
func (r *Registry) Run() error {
	r.running = true
	defer func() { r.running = false }()

	for _, s := range r.suites {
		if err := s.Run(); err != nil {
			return err
		}
	}
	return nil
}

// Failed reports whether any suite recorded a failure.
func (r *Registry) Failed() bool {
	for _, s := range r.suites {
		if s.Failed() {
			return true
		}
	}
	return false
}
