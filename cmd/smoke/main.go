// Command smoke runs an end-to-end check against a live corebank-api:
// onboard a customer, open two accounts, transfer, verify conservation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("COREBANK_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	staffEmail := envOr("COREBANK_STAFF_EMAIL", "staff@corebank.local")
	staffPassword := os.Getenv("COREBANK_STAFF_PASSWORD")
	if staffPassword == "" {
		log.Fatal("COREBANK_STAFF_PASSWORD is required")
	}

	c := &client{base: base, http: &http.Client{Timeout: 5 * time.Second}}

	staffToken := c.login(staffEmail, staffPassword)

	email := fmt.Sprintf("smoke-%d@corebank.local", time.Now().UnixNano())
	created := c.post("/api/staff/customers", staffToken, map[string]string{
		"name":     "Smoke Customer",
		"email":    email,
		"password": "smoke-pass-1",
	})
	customerID := created["customer"].(map[string]any)["id"].(string)

	accA := c.post("/api/staff/accounts", staffToken, map[string]any{
		"customer_id":     customerID,
		"account_type":    "savings",
		"initial_balance": "10.00",
	})
	accB := c.post("/api/staff/accounts", staffToken, map[string]any{
		"customer_id":     customerID,
		"account_type":    "checking",
		"initial_balance": "0",
	})

	customerToken := c.login(email, "smoke-pass-1")
	c.post("/api/customer/transfer", customerToken, map[string]any{
		"from_account_id":   accA["id"],
		"to_account_number": accB["account_number"],
		"amount":            "4.20",
	})

	accounts := c.get("/api/customer/accounts", customerToken)["accounts"].([]any)
	balances := map[string]string{}
	for _, raw := range accounts {
		acc := raw.(map[string]any)
		balances[acc["id"].(string)] = acc["balance"].(string)
	}

	balA := balances[accA["id"].(string)]
	balB := balances[accB["id"].(string)]
	if balA != "5.80" || balB != "4.20" {
		log.Fatalf("unexpected balances: A=%s B=%s", balA, balB)
	}

	fmt.Printf("✅ corebank smoke test passed: accounts=%s,%s\n", accA["account_number"], accB["account_number"])
}

type client struct {
	base string
	http *http.Client
}

func (c *client) login(email, password string) string {
	resp := c.post("/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	token, _ := resp["token"].(string)
	if token == "" {
		log.Fatalf("login as %s returned no token", email)
	}
	return token
}

func (c *client) post(path, token string, body any) map[string]any {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal %s body: %v", path, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build %s request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, token)
}

func (c *client) get(path, token string) map[string]any {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		log.Fatalf("build %s request: %v", path, err)
	}
	return c.do(req, path, token)
}

func (c *client) do(req *http.Request, path, token string) map[string]any {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("decode %s response: %v", path, err)
	}
	if resp.StatusCode >= 300 {
		log.Fatalf("%s failed: %d %v", path, resp.StatusCode, out)
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
