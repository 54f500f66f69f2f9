package mcp

import "github.com/mark3labs/mcp-go/mcp"

// queryContextTool defines the query_context MCP tool.
var queryContextTool = mcp.NewTool("query_context",
	mcp.WithDescription("Semantically search a project context collection. Returns the most relevant documents with metadata and distances."),
	mcp.WithString("collection",
		mcp.Required(),
		mcp.Description("Collection to search, e.g. business-and-architecture, features, tech-specs, uisi"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("n_results",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("type",
		mcp.Description("Filter results by document type tag, e.g. adr, feature, ts4, ui-intent"),
	),
)

// getDocumentTool defines the get_document MCP tool.
var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Fetch a single document from a collection by id."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
)

// addDocumentTool defines the add_document MCP tool.
var addDocumentTool = mcp.NewTool("add_document",
	mcp.WithDescription("Store a new document in a collection. Fails if the id already exists."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
	mcp.WithString("id", mcp.Description("Document id; generated when omitted")),
	mcp.WithString("type", mcp.Description("Type tag stored in the document metadata")),
)

// updateDocumentTool defines the update_document MCP tool.
var updateDocumentTool = mcp.NewTool("update_document",
	mcp.WithDescription("Overwrite the content of an existing document."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	mcp.WithString("content", mcp.Required(), mcp.Description("New document text")),
)

// deleteDocumentTool defines the delete_document MCP tool.
var deleteDocumentTool = mcp.NewTool("delete_document",
	mcp.WithDescription("Delete a document from a collection. Deleting an unknown id is a no-op."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
)

// listCollectionsTool defines the list_collections MCP tool.
var listCollectionsTool = mcp.NewTool("list_collections",
	mcp.WithDescription("List the project's context collections with their document counts."),
)

// collectionInfoTool defines the collection_info MCP tool.
var collectionInfoTool = mcp.NewTool("collection_info",
	mcp.WithDescription("Get a collection's metadata and document count."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
)

// peekCollectionTool defines the peek_collection MCP tool.
var peekCollectionTool = mcp.NewTool("peek_collection",
	mcp.WithDescription("Return a small sample of documents from a collection."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	mcp.WithNumber("limit", mcp.Description("Maximum sample size (default 5)")),
)

// classifyPathTool defines the classify_path MCP tool.
var classifyPathTool = mcp.NewTool("classify_path",
	mcp.WithDescription("Determine which collection and type tag a project file belongs to."),
	mcp.WithString("path", mcp.Required(), mcp.Description("File path, absolute or relative to the project root")),
)
