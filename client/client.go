package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloudbox/drive-api/model"
)

// Client talks to the drive API and keeps its SyncCache reconciled
// against server responses. Flag mutations are optimistic: the cached
// view changes before the call resolves and is rolled back on failure.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *SyncCache
	notify  Notify
}

func New(baseURL string, notify Notify) *Client {
	if notify == nil {
		notify = func(string, string) {}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   NewSyncCache(notify),
		notify:  notify,
	}
}

func (c *Client) Cache() *SyncCache {
	return c.cache
}

// RefreshList replaces the cache with the server's list. On failure the
// cache degrades to an empty list instead of blocking the UI.
func (c *Client) RefreshList(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/list", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.cache.SetList(nil)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.cache.SetList(nil)
		return fmt.Errorf("list request failed with status %d", resp.StatusCode)
	}

	var body struct {
		Items []model.ListedFile `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.cache.SetList(nil)
		return err
	}

	c.cache.SetList(body.Items)
	return nil
}

// Upload streams a file to the server, reporting byte-level progress
// through the tracker. Cancelling the context abandons the upload and
// stops progress reporting; no server-side abort is propagated.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, size int64, tracker *ProgressTracker) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		if _, err := io.Copy(fw, tracker.Reader(r)); err != nil {
			pw.CloseWithError(err)
			return
		}

		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			tracker.Abandon()
			return ctx.Err()
		}

		c.notify("Upload failed", "error")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.notify("Upload failed", "error")
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	c.notify("Upload complete", "success")
	return c.RefreshList(ctx)
}

// ToggleFavorite flips the favorite flag optimistically and confirms or
// rolls back against the server response.
func (c *Client) ToggleFavorite(ctx context.Context, key string) error {
	f, ok := c.cache.Get(key)
	if !ok {
		return fmt.Errorf("no cached file with key %q", key)
	}

	next := !f.IsFavorite
	return c.patchFlags(ctx, f.ID, key, model.FlagPatch{IsFavorite: &next}, "")
}

// MoveToTrash soft-deletes a file. The record stays in the store and in
// storage accounting until permanently deleted.
func (c *Client) MoveToTrash(ctx context.Context, key string) error {
	f, ok := c.cache.Get(key)
	if !ok {
		return fmt.Errorf("no cached file with key %q", key)
	}

	trash := true
	return c.patchFlags(ctx, f.ID, key, model.FlagPatch{IsTrash: &trash}, "Moved to Trash")
}

// Restore takes a file back out of the trash.
func (c *Client) Restore(ctx context.Context, key string) error {
	f, ok := c.cache.Get(key)
	if !ok {
		return fmt.Errorf("no cached file with key %q", key)
	}

	trash := false
	return c.patchFlags(ctx, f.ID, key, model.FlagPatch{IsTrash: &trash}, "File Restored")
}

func (c *Client) patchFlags(ctx context.Context, id uint, key string, patch model.FlagPatch, successMsg string) error {
	cmd, err := c.cache.ApplyOptimistic(key, patch)
	if err != nil {
		return err
	}

	body, err := json.Marshal(patch)
	if err != nil {
		c.cache.Rollback(cmd)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/api/update/%d", c.baseURL, id), bytes.NewReader(body))
	if err != nil {
		c.cache.Rollback(cmd)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.cache.Rollback(cmd)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.cache.Rollback(cmd)
		return fmt.Errorf("update failed with status %d", resp.StatusCode)
	}

	c.cache.Confirm(cmd)
	if successMsg != "" {
		c.notify(successMsg, "neutral")
	}
	return nil
}

// PermanentDelete removes the file server-side, then drops it from the
// cache. Not optimistic: the record only disappears once the server
// confirmed.
func (c *Client) PermanentDelete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/delete?key="+url.QueryEscape(key), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.notify("Could not delete file", "error")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.notify("Could not delete file", "error")
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}

	c.cache.Remove(key)
	c.notify("File permanently deleted", "neutral")
	return nil
}

// DownloadURL fetches a fresh time-limited signed URL for a key.
func (c *Client) DownloadURL(ctx context.Context, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/download?key="+url.QueryEscape(key), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download request failed with status %d", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	return body.URL, nil
}

// CreateCheckoutSession asks the server for a billing redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/create-checkout-session", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkout request failed with status %d", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	return body.URL, nil
}
