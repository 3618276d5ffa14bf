// Package remote talks to the translation server that stores the strings of
// every language.
//
// The server exposes one resource per language:
//
//	GET  {base}/api/v2/language/{lang}/              -> {"code": "es", "strings": [...]}
//	POST {base}/api/v2/language/{lang}/bulk-action/  <- {"actions": [...]}
//
// Requests are authenticated with "Authorization: Token <token>".
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ifrcgo/translatte/catalog"
)

// Server action names.
const (
	ActionSet    = "set"
	ActionDelete = "delete"
)

// ServerString is a string as the server stores it. PageName is the
// namespace.
type ServerString struct {
	Key      string `json:"key"`
	PageName string `json:"page_name"`
	Value    string `json:"value"`
	Hash     string `json:"hash"`
	Language string `json:"language,omitempty"`
}

// ServerAction is one item of a bulk-action request.
type ServerAction struct {
	Action   string `json:"action"`
	Key      string `json:"key"`
	PageName string `json:"page_name"`
	Value    string `json:"value"`
	Hash     string `json:"hash"`
}

// MarshalJSON leaves value and hash out of delete actions.
func (a ServerAction) MarshalJSON() ([]byte, error) {
	if a.Action == ActionDelete {
		return json.Marshal(struct {
			Action   string `json:"action"`
			Key      string `json:"key"`
			PageName string `json:"page_name"`
		}{a.Action, a.Key, a.PageName})
	}
	type plain ServerAction
	return json.Marshal(plain(a))
}

type languageResponse struct {
	Code    string         `json:"code"`
	Strings []ServerString `json:"strings"`
}

type bulkRequest struct {
	Actions []ServerAction `json:"actions"`
}

// Client is a translation server client.
type Client struct {
	http          *resty.Client
	maxConcurrent int
}

// New creates a client for the server at baseURL. maxConcurrent bounds the
// number of languages fetched or posted at once.
func New(baseURL, token string, timeout time.Duration, maxConcurrent int) *Client {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Authorization", "Token "+token).
		SetHeader("Accept", "application/json")
	return &Client{http: c, maxConcurrent: maxConcurrent}
}

// Fetch downloads every string of one language.
func (c *Client) Fetch(ctx context.Context, lang string) ([]catalog.Entry, error) {
	var resp languageResponse
	r, err := c.http.R().
		SetContext(ctx).
		SetPathParam("lang", lang).
		SetResult(&resp).
		Get("/api/v2/language/{lang}/")
	if err != nil {
		return nil, fmt.Errorf("fetching %s strings: %w", lang, err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("fetching %s strings: %s; body: %s", lang, r.Status(), abbreviate(r.String(), 500))
	}

	entries := make([]catalog.Entry, 0, len(resp.Strings))
	for _, s := range resp.Strings {
		entries = append(entries, catalog.Entry{
			Namespace: s.PageName,
			Key:       s.Key,
			Language:  lang,
			Value:     s.Value,
			Hash:      s.Hash,
		})
	}
	catalog.Sort(entries)
	return entries, nil
}

// Post sends a bulk-action request for one language. An empty batch is not
// sent.
func (c *Client) Post(ctx context.Context, lang string, actions []ServerAction) error {
	if len(actions) == 0 {
		return nil
	}
	r, err := c.http.R().
		SetContext(ctx).
		SetPathParam("lang", lang).
		SetHeader("Content-Type", "application/json").
		SetBody(bulkRequest{Actions: actions}).
		Post("/api/v2/language/{lang}/bulk-action/")
	if err != nil {
		return fmt.Errorf("posting %s actions: %w", lang, err)
	}
	if r.IsError() {
		return fmt.Errorf("posting %s actions: %s; body: %s", lang, r.Status(), abbreviate(r.String(), 500))
	}
	return nil
}

// FetchAll fetches every language concurrently and returns the union,
// sorted by identity. The first failure cancels the remaining requests.
func (c *Client) FetchAll(ctx context.Context, langs []string) ([]catalog.Entry, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	var mu sync.Mutex
	var all []catalog.Entry
	for _, lang := range langs {
		g.Go(func() error {
			entries, err := c.Fetch(ctx, lang)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, entries...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	catalog.Sort(all)
	return all, nil
}

// PostAll posts the batch of each language concurrently.
func (c *Client) PostAll(ctx context.Context, batches map[string][]ServerAction) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for _, lang := range sortedKeys(batches) {
		actions := batches[lang]
		g.Go(func() error {
			return c.Post(ctx, lang, actions)
		})
	}
	return g.Wait()
}

// BuildActions computes, per language, the server actions that turn before
// into after. Strings missing from after are deleted. New strings and
// strings whose value or hash changed are set. Languages without changes
// are left out. Within a language deletes come first, then sets, each in
// (page_name, key) order.
func BuildActions(before, after []catalog.Entry) map[string][]ServerAction {
	prev := make(map[string]catalog.Entry, len(before))
	for _, e := range before {
		prev[e.ID()] = e
	}
	next := make(map[string]catalog.Entry, len(after))
	for _, e := range after {
		next[e.ID()] = e
	}

	deletes := make(map[string][]catalog.Entry)
	sets := make(map[string][]catalog.Entry)
	for id, e := range prev {
		if _, ok := next[id]; !ok {
			deletes[e.Language] = append(deletes[e.Language], e)
		}
	}
	for id, e := range next {
		old, ok := prev[id]
		if !ok || old.Value != e.Value || old.Hash != e.Hash {
			sets[e.Language] = append(sets[e.Language], e)
		}
	}

	out := make(map[string][]ServerAction)
	for lang, entries := range deletes {
		catalog.Sort(entries)
		for _, e := range entries {
			out[lang] = append(out[lang], ServerAction{Action: ActionDelete, Key: e.Key, PageName: e.Namespace})
		}
	}
	for lang, entries := range sets {
		catalog.Sort(entries)
		for _, e := range entries {
			out[lang] = append(out[lang], ServerAction{Action: ActionSet, Key: e.Key, PageName: e.Namespace, Value: e.Value, Hash: e.Hash})
		}
	}
	return out
}

// Count returns the total number of actions in batches.
func Count(batches map[string][]ServerAction) int {
	n := 0
	for _, actions := range batches {
		n += len(actions)
	}
	return n
}

func sortedKeys(m map[string][]ServerAction) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
