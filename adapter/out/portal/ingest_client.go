package portal

import (
	"context"

	"ingest_server/core/domain"
	"ingest_server/pkg/resilience"
)

// Client implements out.RosterSourcePort. Every fetch performs a fresh
// login: portal sessions are short-lived and a stale cookie set is the
// most common failure mode.
type Client struct {
	baseURL     string
	creds       Credentials
	minExpected int
	cb          *resilience.CircuitBreaker
}

func NewClient(baseURL string, creds Credentials, minExpected int) *Client {
	return &Client{
		baseURL:     baseURL,
		creds:       creds,
		minExpected: minExpected,
		cb:          resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("clickedu-portal")),
	}
}

func (c *Client) FetchRoster(ctx context.Context) ([]*domain.ScrapedStudent, error) {
	var students []*domain.ScrapedStudent

	err := c.cb.Execute(func() error {
		session, err := Login(ctx, c.baseURL, c.creds)
		if err != nil {
			return err
		}
		students, err = FetchStudents(ctx, c.baseURL, session, c.minExpected)
		return err
	})
	if err != nil {
		return nil, err
	}
	return students, nil
}
