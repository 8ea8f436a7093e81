package config

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/edp1096/mna-spice/internal/logging"
	"github.com/edp1096/mna-spice/pkg/analysis"
	"github.com/edp1096/mna-spice/pkg/device"
)

var validate = validator.New()

type Config struct {
	Log         LogConfig     `yaml:"log"`
	Solver      SolverConfig  `yaml:"solver"`
	DiodeModels []DiodeConfig `yaml:"diode_models" validate:"dive"`
	Output      OutputConfig  `yaml:"output"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type SolverConfig struct {
	MaxIterations    int     `yaml:"max_iterations" validate:"min=1,max=10000"`
	AbsTol           float64 `yaml:"abstol" validate:"gt=0"`
	RelTol           float64 `yaml:"reltol" validate:"gt=0,lt=1"`
	Gmin             float64 `yaml:"gmin" validate:"gte=0"`
	Temperature      float64 `yaml:"temperature" validate:"gt=0"`
	IntegrationOrder int     `yaml:"integration_order" validate:"min=1,max=2"`
	GminSteps        int     `yaml:"gmin_steps" validate:"min=0,max=20"`
}

type DiodeConfig struct {
	Name string  `yaml:"name" validate:"required"`
	Is   float64 `yaml:"is" validate:"gt=0"`
	N    float64 `yaml:"n" validate:"omitempty,gt=0"`
}

type OutputConfig struct {
	PlotDir    string `yaml:"plot_dir"`
	PlotFormat string `yaml:"plot_format" validate:"oneof=png svg pdf"`
	Width      int    `yaml:"width" validate:"min=1"`  // centimetres
	Height     int    `yaml:"height" validate:"min=1"` // centimetres

	// MetricsFile receives the solver metrics in Prometheus text format
	// after the run. Empty disables it.
	MetricsFile string `yaml:"metrics_file"`
}

func Default() *Config {
	opts := analysis.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Solver: SolverConfig{
			MaxIterations:    opts.MaxIter,
			AbsTol:           opts.AbsTol,
			RelTol:           opts.RelTol,
			Gmin:             opts.Gmin,
			Temperature:      opts.Temp,
			IntegrationOrder: opts.Order,
			GminSteps:        opts.GminSteps,
		},
		Output: OutputConfig{
			PlotDir:    ".",
			PlotFormat: "png",
			Width:      16,
			Height:     10,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			return errors.Errorf("config %s: field is required", e.Namespace())
		case "min", "gte":
			return errors.Errorf("config %s: must be at least %s", e.Namespace(), e.Param())
		case "max", "lte":
			return errors.Errorf("config %s: must not exceed %s", e.Namespace(), e.Param())
		case "oneof":
			return errors.Errorf("config %s: must be one of [%s]", e.Namespace(), e.Param())
		default:
			return errors.Errorf("config %s: validation failed (%s)", e.Namespace(), e.Tag())
		}
	}
	return err
}

// AnalysisOptions converts the solver section.
func (c *Config) AnalysisOptions(logger *slog.Logger) analysis.Options {
	return analysis.Options{
		MaxIter:   c.Solver.MaxIterations,
		AbsTol:    c.Solver.AbsTol,
		RelTol:    c.Solver.RelTol,
		Gmin:      c.Solver.Gmin,
		Temp:      c.Solver.Temperature,
		Order:     c.Solver.IntegrationOrder,
		GminSteps: c.Solver.GminSteps,
		Logger:    logger,
	}
}

// Models is the built-in diode table extended by the configured models.
func (c *Config) Models() device.ModelTable {
	models := device.DefaultModels()
	for _, m := range c.DiodeModels {
		models.Add(device.DiodeModel{Name: m.Name, Is: m.Is, N: m.N})
	}
	return models
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return logging.New(w, logging.ParseLevel(c.Log.Level), c.Log.Format)
}
