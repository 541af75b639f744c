package prompt

// Profile is an optional manifest overriding the engine's built-in
// system prompt.
type Profile struct {
	Kind       string      `yaml:"kind"`
	APIVersion string      `yaml:"apiVersion"`
	Spec       ProfileSpec `yaml:"spec"`
}

type ProfileSpec struct {
	SystemPrompt string `yaml:"systemPrompt"`
}
