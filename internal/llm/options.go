package llm

// defaultTemperature keeps output consistent when the caller does not ask otherwise.
const defaultTemperature float32 = 0.1

// GenerateOptions are the sampling parameters of a single generation call.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// GenerateOption customizes one generation call.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = float32(t)
	}
}

// WithMaxOutputTokens caps the length of the generated response.
func WithMaxOutputTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxOutputTokens = int32(n)
	}
}

// ResolveOptions applies opts over the defaults.
func ResolveOptions(opts ...GenerateOption) GenerateOptions {
	o := GenerateOptions{Temperature: defaultTemperature}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
