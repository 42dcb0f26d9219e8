package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"tourvisto/pkg/config"
	"tourvisto/pkg/identity"
)

// devflow drives one create-trip submission against a running admin server
// using a locally minted session cookie.
func main() {
	var (
		baseURL   = flag.String("url", "", "admin base url (defaults to http://localhost<HTTP_ADDR>)")
		userID    = flag.String("user", "dev-user", "user id placed in the session token")
		sessionID = flag.String("session", "", "provider session id (required for the provider to recognise the user)")
		country   = flag.String("country", "Japan", "country")
		style     = flag.String("style", "Relaxed", "travel style")
		interest  = flag.String("interest", "Food & Culinary", "interest")
		budget    = flag.String("budget", "Mid-range", "budget")
		group     = flag.String("group", "Couple", "group type")
		days      = flag.String("days", "5", "duration in days")
	)
	flag.Parse()

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "missing -session")
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.Auth.SessionSecret == "" {
		fmt.Fprintln(os.Stderr, "missing SESSION_SECRET in env/.env")
		os.Exit(2)
	}
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}

	token, err := identity.SignSessionToken(*userID, *sessionID, cfg.Auth.SessionSecret, time.Now(), time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign session token: %v\n", err)
		os.Exit(1)
	}
	cookie := &http.Cookie{Name: cfg.Auth.SessionCookie, Value: token}

	form := url.Values{
		"country":     {*country},
		"travelStyle": {*style},
		"interest":    {*interest},
		"budget":      {*budget},
		"groupType":   {*group},
		"duration":    {*days},
	}
	req, err := http.NewRequest(http.MethodPost, *baseURL+"/trips/create", strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	c := &http.Client{
		Timeout: 2 * time.Minute,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post form: %v\n", err)
		fmt.Fprintf(os.Stderr, "tip: is the admin server running? url=%s\n", *baseURL)
		os.Exit(1)
	}
	resp.Body.Close()

	fmt.Printf("submit status=%d location=%s\n", resp.StatusCode, resp.Header.Get("Location"))
	if resp.StatusCode != http.StatusSeeOther {
		fmt.Fprintln(os.Stderr, "submission did not redirect; see server logs for the error shown on the form")
		os.Exit(1)
	}

	req, _ = http.NewRequest(http.MethodGet, *baseURL+"/api/attempts/recent?limit=5", nil)
	req.AddCookie(cookie)
	resp, err = c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list attempts: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("attempt log unavailable (status=%d)\n", resp.StatusCode)
		return
	}

	var out struct {
		Items []struct {
			Country string    `json:"country"`
			Outcome string    `json:"outcome"`
			TripID  string    `json:"tripId"`
			At      time.Time `json:"createdAt"`
		} `json:"items"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		fmt.Fprintf(os.Stderr, "decode attempts: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("recent attempts:")
	for _, it := range out.Items {
		fmt.Printf("  - %s %s outcome=%s trip=%s\n", it.At.Format(time.RFC3339), it.Country, it.Outcome, it.TripID)
	}
}

func defaultBaseURL(httpAddr string) string {
	// httpAddr is typically ":8080" or "0.0.0.0:8080".
	addr := strings.TrimSpace(httpAddr)
	switch {
	case strings.HasPrefix(addr, ":"):
		return "http://localhost" + addr
	case strings.HasPrefix(addr, "0.0.0.0:"):
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	case strings.HasPrefix(addr, "127.0.0.1:"):
		return "http://" + addr
	}
	return "http://localhost:8080"
}
