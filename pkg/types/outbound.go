// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OutboundCall records one PATCH attempt against the registry. A nil
// ResponseStatus means no response arrived (timeout or network failure).
type OutboundCall struct {
	ID             string    `json:"id" yaml:"id"`
	RequestURL     string    `json:"request_url" yaml:"request_url"`
	RequestXML     string    `json:"request_xml" yaml:"request_xml"`
	ResponseBody   string    `json:"response_body" yaml:"response_body"`
	ResponseStatus *int      `json:"response_status" yaml:"response_status"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`

	// RetryOf points at the call this one retries; empty for the first attempt.
	RetryOf string `json:"retry_of,omitempty" yaml:"retry_of,omitempty"`
}

// Answered reports whether the registry responded with a status code.
func (c OutboundCall) Answered() bool {
	return c.ResponseStatus != nil
}

// Succeeded reports whether the registry answered with a 2xx status.
func (c OutboundCall) Succeeded() bool {
	return c.ResponseStatus != nil && *c.ResponseStatus >= 200 && *c.ResponseStatus < 300
}
