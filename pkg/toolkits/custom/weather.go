package custom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/minhyannv/toolchat-go/pkg/tools"
)

func (t *Toolset) currentWeather(ctx context.Context, args weatherArgs) tools.Result {
	city := strings.TrimSpace(args.City)
	if city == "" {
		return tools.Failure("city is required")
	}
	key := t.weatherKey()
	if key == "" {
		return tools.Failuref("API key is not set in the environment variable '%s'.", WeatherAPIKeyEnv)
	}

	params := url.Values{"q": {city}, "appid": {key}, "units": {"metric"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.weatherEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return tools.Failuref("Error fetching weather data: %v", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return tools.Failuref("Error fetching weather data: %v", redactKey(err, key))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tools.Failuref("Error fetching weather data: %v", err)
	}
	data := gjson.ParseBytes(body)
	if resp.StatusCode != http.StatusOK || data.Get("cod").Int() != http.StatusOK {
		message := data.Get("message").String()
		if message == "" {
			message = "HTTP " + strconv.Itoa(resp.StatusCode)
		}
		return tools.Failuref("Error fetching weather data: %s", message)
	}

	temp := data.Get("main.temp")
	if !temp.Exists() {
		return tools.Failure("Error fetching weather data: response has no temperature")
	}
	return tools.Success(fmt.Sprintf("Weather in %s: %s°C", city, temp.Raw))
}

// redactKey keeps the API key out of errors that echo the request URL.
func redactKey(err error, key string) string {
	return strings.ReplaceAll(err.Error(), key, "REDACTED")
}
