package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// handleQueryContext performs semantic search over one collection.
func (s *Server) handleQueryContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	opts := contextstore.QueryOptions{
		NResults: request.GetInt("n_results", 5),
	}
	if typeTag := request.GetString("type", ""); typeTag != "" {
		opts.Where = map[string]string{"type": typeTag}
	}

	result, err := s.store.QueryDocuments(ctx, collection, []string{query}, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	if len(result.IDs) == 0 || len(result.IDs[0]) == 0 {
		return mcp.NewToolResultText("No results found. The collection may be empty; run `cliplin index` to index the documentation tree."), nil
	}

	return mcp.NewToolResultText(formatQueryResult(result)), nil
}

// handleGetDocument returns one document with its metadata.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	bundle, err := s.store.GetDocuments(ctx, collection, contextstore.GetOptions{IDs: []string{id}})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	if len(bundle.IDs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("document %q not found in collection %q", id, collection)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Document %s\n", bundle.IDs[0])
	for k, v := range bundle.Metadatas[0] {
		fmt.Fprintf(&sb, "%s: %s\n", k, v)
	}
	sb.WriteString("\n")
	sb.WriteString(bundle.Documents[0])
	return mcp.NewToolResultText(sb.String()), nil
}

// handleAddDocument stores a new document, generating an id when the
// caller omits one.
func (s *Server) handleAddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	id := request.GetString("id", "")
	if id == "" {
		id = uuid.NewString()
	}

	metadata := map[string]string{}
	if typeTag := request.GetString("type", ""); typeTag != "" {
		metadata["type"] = typeTag
	}

	if _, err := s.store.AddDocuments(ctx, collection, []string{id}, []string{content}, []map[string]string{metadata}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added document %s to %s.", id, collection)), nil
}

// handleUpdateDocument overwrites the content of an existing document.
func (s *Server) handleUpdateDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	if _, err := s.store.UpdateDocuments(ctx, collection, []string{id}, []string{content}, nil); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated document %s in %s.", id, collection)), nil
}

// handleDeleteDocument removes a document by id.
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	deleted, err := s.store.DeleteDocuments(ctx, collection, []string{id})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	if deleted == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Document %s was not present in %s.", id, collection)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted document %s from %s.", id, collection)), nil
}

// handleListCollections lists collections with document counts.
func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.store.ListCollections(ctx, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No collections yet. Run `cliplin init` to provision them."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d collection(s):\n", len(names))
	for _, name := range names {
		count, err := s.store.GetCollectionCount(ctx, name)
		if err != nil {
			fmt.Fprintf(&sb, "- %s\n", name)
			continue
		}
		fmt.Fprintf(&sb, "- %s (%d documents)\n", name, count)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleCollectionInfo returns metadata and count for one collection.
func (s *Server) handleCollectionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}

	info, err := s.store.GetCollectionInfo(ctx, collection)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("info failed: %v", err)), nil
	}
	count, err := s.store.GetCollectionCount(ctx, collection)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Collection: %s\nDocuments: %d\n", info.Name, count)
	for k, v := range info.Metadata {
		fmt.Fprintf(&sb, "%s: %s\n", k, v)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handlePeekCollection returns a small document sample.
func (s *Server) handlePeekCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := request.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: collection"), nil
	}

	bundle, err := s.store.Peek(ctx, collection, request.GetInt("limit", 5))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("peek failed: %v", err)), nil
	}
	if len(bundle.IDs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Collection %s is empty.", collection)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sample of %d document(s) from %s:\n", len(bundle.IDs), collection)
	for i, id := range bundle.IDs {
		fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", id, truncate(bundle.Documents[i], 300))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleClassifyPath routes a file path through the routing table.
func (s *Server) handleClassifyPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.projectRoot, path)
	}

	collection, err := contextstore.CollectionForFile(path, s.projectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classify failed: %v", err)), nil
	}
	if collection == "" {
		return mcp.NewToolResultText("The path does not map to any context collection."), nil
	}
	typeTag, err := contextstore.TypeForFile(path, s.projectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classify failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Collection: %s\nType: %s\n", collection, typeTag)), nil
}

// formatQueryResult converts a query result into text optimized for AI
// agent consumption.
func formatQueryResult(result *contextstore.QueryResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(result.IDs[0]))

	for i, id := range result.IDs[0] {
		fmt.Fprintf(&sb, "\n--- Result %d ---\nID: %s\n", i+1, id)
		if result.Metadatas != nil {
			for k, v := range result.Metadatas[0][i] {
				fmt.Fprintf(&sb, "%s: %s\n", k, v)
			}
		}
		if result.Distances != nil {
			fmt.Fprintf(&sb, "Distance: %.4f\n", result.Distances[0][i])
		}
		if result.Documents != nil {
			sb.WriteString("\n")
			sb.WriteString(result.Documents[0][i])
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
