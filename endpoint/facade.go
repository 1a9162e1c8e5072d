package endpoint

// Create builds an endpoint from cfg and registers it on r in one step.
func Create(r Router, cfg Config) (*Endpoint, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Register(r); err != nil {
		return nil, err
	}
	return e, nil
}
