// Package custom is the general-purpose toolset offered in dynamic mode:
// clock, calculator, weather, user lookup and the shell.
package custom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/schema"
	"github.com/minhyannv/toolchat-go/pkg/toolkits/shell"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// WeatherAPIKeyEnv names the environment variable holding the OpenWeather key.
const WeatherAPIKeyEnv = "OPENWEATHER_API_KEY"

// DefaultWeatherEndpoint is the OpenWeather current-weather API.
const DefaultWeatherEndpoint = "http://api.openweathermap.org/data/2.5/weather"

// Toolset implements tools.Provider.
type Toolset struct {
	shell           *shell.Tool
	now             func() time.Time
	weatherEndpoint string
	weatherKey      func() string
	httpClient      *http.Client
	logger          loggerpkg.Logger
	verbose         bool
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithClock replaces the time source of get_current_time.
func WithClock(now func() time.Time) Option {
	return func(t *Toolset) {
		if now != nil {
			t.now = now
		}
	}
}

// WithWeatherEndpoint points get_current_weather at another API.
func WithWeatherEndpoint(endpoint string) Option {
	return func(t *Toolset) {
		if endpoint != "" {
			t.weatherEndpoint = endpoint
		}
	}
}

// WithWeatherKey overrides how the OpenWeather key is read.
func WithWeatherKey(key func() string) Option {
	return func(t *Toolset) {
		if key != nil {
			t.weatherKey = key
		}
	}
}

// WithHTTPClient replaces the HTTP client used for weather lookups.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Toolset) {
		if hc != nil {
			t.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for verbose tracing.
func WithLogger(l loggerpkg.Logger, verbose bool) Option {
	return func(t *Toolset) {
		if l != nil {
			t.logger = l
		}
		t.verbose = verbose
	}
}

// New builds the toolset. sh runs run_shell_command; nil leaves it out.
func New(sh *shell.Tool, opts ...Option) *Toolset {
	t := &Toolset{
		shell:           sh,
		now:             time.Now,
		weatherEndpoint: DefaultWeatherEndpoint,
		weatherKey:      func() string { return os.Getenv(WeatherAPIKeyEnv) },
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements tools.Provider.
func (t *Toolset) Name() string { return "custom" }

type calculatorArgs struct {
	Equation string `json:"equation"`
}

type weatherArgs struct {
	City string `json:"city"`
}

type userArgs struct {
	User map[string]any `json:"__user__,omitempty"`
}

// Methods implements tools.Provider. Methods are listed by name.
func (t *Toolset) Methods() []tools.Method {
	methods := []tools.Method{
		{
			Name: "calculator",
			Doc: `Calculate the result of an equation.
:param equation: The equation to calculate. There is no ** operator; write powers as repeated multiplication.`,
			Params:  schema.ParamsOf[calculatorArgs](),
			Handler: decode(t.calculator),
			Title:   "Calculator",
		},
		{
			Name: "get_current_time",
			Doc: `Get the current time in a human-readable format.
:return: The current time.`,
			Handler: func(context.Context, json.RawMessage) (any, error) {
				return t.currentTime(), nil
			},
			Title: "Clock",
		},
		{
			Name: "get_current_weather",
			Doc: `Get the current weather for a given city.
:param city: The name of the city to get the weather for.
:return: The current weather information or an error message.`,
			Params:  schema.ParamsOf[weatherArgs](),
			Handler: decode(t.currentWeather),
			Title:   "Weather",
		},
		{
			Name:    "get_user_name_and_email_and_id",
			Doc:     `Get the user name, Email and ID from the user object.`,
			Params:  schema.ParamsOf[userArgs](),
			Handler: decode(t.userSummary),
			Title:   "User",
		},
	}
	if t.shell != nil {
		methods = append(methods, t.shell.Method())
	}
	return methods
}

// decode adapts a typed handler to tools.Handler.
func decode[A any](fn func(context.Context, A) tools.Result) tools.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return fn(ctx, args), nil
	}
}

func (t *Toolset) currentTime() string {
	now := t.now()
	return fmt.Sprintf("Current Date and Time = %s, %s", now.Format("Monday, January 02, 2006"), now.Format("03:04:05 PM"))
}

func (t *Toolset) userSummary(_ context.Context, args userArgs) tools.Result {
	var parts []string
	if name, ok := args.User["name"]; ok {
		parts = append(parts, fmt.Sprintf("User: %v", name))
	}
	if id, ok := args.User["id"]; ok {
		parts = append(parts, fmt.Sprintf("(ID: %v)", id))
	}
	if email, ok := args.User["email"]; ok {
		parts = append(parts, fmt.Sprintf("(Email: %v)", email))
	}
	if len(parts) == 0 {
		return tools.Success("User: Unknown")
	}
	return tools.Success(strings.Join(parts, " "))
}
