package framework

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const healthPath = "/health"

// ServiceProbe checks the HTTP health resource of the service.
type ServiceProbe struct {
	baseURL string
	client  *http.Client
	logger  Logger
}

// NewServiceProbe returns a probe for the service at baseURL, such as "http://lake:8080".
func NewServiceProbe(baseURL string, logger Logger) *ServiceProbe {
	if logger == nil {
		logger = NullLogger()
	}
	return &ServiceProbe{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

func (p *ServiceProbe) BaseURL() string {
	return p.baseURL
}

// Healthy returns nil if the health resource answers 200.
func (p *ServiceProbe) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("health check returned status code %d", resp.StatusCode)
	}
	return nil
}

// AwaitHealthy polls the health resource until it succeeds or timeout elapses, printing
// a dot to output for every attempt.
func (p *ServiceProbe) AwaitHealthy(timeout time.Duration, output io.Writer) error {
	if output == nil {
		output = io.Discard
	}
	fmt.Fprintf(output, "Connecting to service at %s", p.baseURL)
	err := Eventually(timeout, DefaultPollInterval, func() error {
		fmt.Fprintf(output, ".")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return p.Healthy(ctx)
	})
	fmt.Fprintln(output)
	if err != nil {
		p.logger.Printf("Service at %s never became healthy: %s", p.baseURL, err)
		return err
	}
	p.logger.Printf("Service at %s is healthy", p.baseURL)
	return nil
}
