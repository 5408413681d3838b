package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ruslanv/pdfchat/internal/config"
	"github.com/ruslanv/pdfchat/internal/session"
)

// currentSession returns the CLI's session id, creating a session on the
// server (and caching the id on disk) when none exists or the cached one
// has expired with a server restart.
func currentSession(ctx context.Context, client *apiClient) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(cfg.Storage.DataDir, "cli-session")

	if data, err := os.ReadFile(cachePath); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			resp, err := client.get(ctx, "/sessions/"+id)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return id, nil
				}
			}
		}
	}

	resp, err := client.post(ctx, "/sessions", nil)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err == nil {
		os.WriteFile(cachePath, []byte(created.ID), 0o644)
	}
	return created.ID, nil
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := currentSession(ctx, client)
		if err != nil {
			return err
		}

		printStep("Uploading %s...", args[0])
		resp, err := client.uploadFile(ctx, "/sessions/"+id+"/upload", args[0])
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		var result struct {
			Status string `json:"status"`
		}
		json.Unmarshal(body, &result)

		if resp.StatusCode != http.StatusOK {
			if result.Status != "" {
				return fmt.Errorf("%s", result.Status)
			}
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		printSuccess("%s", result.Status)
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := currentSession(ctx, client)
		if err != nil {
			return err
		}

		resp, err := client.post(ctx, "/sessions/"+id+"/chat", map[string]string{"question": question})
		if err != nil {
			return err
		}

		var result struct {
			Answer string `json:"answer"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Answer)
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the chat history of the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := currentSession(ctx, client)
		if err != nil {
			return err
		}

		resp, err := client.get(ctx, "/sessions/"+id)
		if err != nil {
			return err
		}

		var snap session.Snapshot
		if err := decodeJSON(resp, &snap); err != nil {
			return err
		}

		if len(snap.Messages) == 0 {
			fmt.Println("No messages yet.")
			return nil
		}

		for _, m := range snap.Messages {
			fmt.Printf("%s: %s\n", roleLabel(m.Role), m.Content)
		}
		return nil
	},
}

// --- clear-chat ---

var clearChatCmd = &cobra.Command{
	Use:   "clear-chat",
	Short: "Clear the chat history (documents stay in the knowledge base)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := currentSession(ctx, client)
		if err != nil {
			return err
		}

		resp, err := client.post(ctx, "/sessions/"+id+"/clear", nil)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Chat history cleared")
		return nil
	},
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List documents in the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/documents")
		if err != nil {
			return err
		}

		var docs []struct {
			ID        string `json:"id"`
			Filename  string `json:"filename"`
			Method    string `json:"method"`
			PageCount int    `json:"page_count"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &docs); err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Println("No documents in the knowledge base.")
			return nil
		}

		for _, d := range docs {
			fmt.Printf("%s  %-30s  %-6s  %d pages\n",
				shortID(d.ID),
				d.Filename,
				d.Method,
				d.PageCount,
			)
		}
		return nil
	},
}

var docsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a document and its vectors from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/documents/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Removed document %s", args[0])
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsRmCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", paint(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
