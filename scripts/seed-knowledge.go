package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/seed-knowledge.go <knowledge-file.json>")
		fmt.Println("Example: go run scripts/seed-knowledge.go testdata/sample-knowledge.json")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}

	knowledgeFile := os.Args[1]

	fmt.Printf("Seeding Knowledge Base\n")
	fmt.Printf("======================\n")
	fmt.Printf("API URL: %s\n", apiURL)
	fmt.Printf("Knowledge file: %s\n\n", knowledgeFile)

	data, err := os.ReadFile(knowledgeFile)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d top-level keys\n", len(doc))

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodPut, apiURL+"/api/v1/knowledge", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error calling API: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Update failed (%d): %s\n", resp.StatusCode, body)
		os.Exit(1)
	}
	fmt.Printf("Knowledge base updated: %s\n", body)
}
