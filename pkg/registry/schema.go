package registry

// TemplateRegistry is the on-disk catalogue of notification templates.
type TemplateRegistry struct {
	Version string `yaml:"version"`

	// Templates is a nested tree whose dotted paths are the template keys,
	// e.g. notification.appealReceived.appellant.emailId.
	Templates map[string]interface{} `yaml:"templates"`

	// Coversheets maps an event id to the cover letter template path used
	// for bundled letters.
	Coversheets map[string]string `yaml:"coversheets"`

	// Bodies holds the rendered text for providers that do not store
	// templates themselves (SNS, SMTP), keyed by template id.
	Bodies map[string]TemplateBody `yaml:"bodies"`
}

type TemplateBody struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}
