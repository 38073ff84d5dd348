package httpclient

import (
	"net"
	"net/http"
	"time"
)

func New(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.MaxIdleConnsPerHost = 4
	return &http.Client{Timeout: timeout, Transport: transport}
}
