package classifier

// Option applies a configuration option to Load.
type Option func(*loadOptions)

type loadOptions struct {
	format      Format
	libraryPath string
	inputName   string
	outputName  string
	positive    int
}

// WithFormat forces the artifact format instead of inferring it from the extension.
func WithFormat(f Format) Option {
	return func(o *loadOptions) {
		if f != "" {
			o.format = f
		}
	}
}

// WithRuntimeLibrary sets the onnxruntime shared library path.
func WithRuntimeLibrary(path string) Option {
	return func(o *loadOptions) {
		if path != "" {
			o.libraryPath = path
		}
	}
}

// WithTensorNames overrides the ONNX input and output tensor names.
func WithTensorNames(input, output string) Option {
	return func(o *loadOptions) {
		if input != "" {
			o.inputName = input
		}
		if output != "" {
			o.outputName = output
		}
	}
}
