// Package cloud talks to the Roblox Open Cloud localization table API.
//
// The wire types mirror the API's JSON. Errors are always *Error, tagged
// with a Kind so callers can tell bad credentials from a transient outage
// from a malformed request.
package cloud

import "encoding/json"

// Entry is one key of a localization table with all its translations.
type Entry struct {
	Identifier   Identifier     `json:"identifier"`
	Metadata     *EntryMetadata `json:"metadata,omitempty"`
	Translations []Translation  `json:"translations"`
}

// Identifier names an entry. Source holds the base-locale text.
type Identifier struct {
	Key     string `json:"key"`
	Context string `json:"context,omitempty"`
	Source  string `json:"source"`
}

// EntryMetadata is optional per-entry information.
type EntryMetadata struct {
	Example   string `json:"example,omitempty"`
	EntryType string `json:"entryType,omitempty"`
}

// Translation is the text of an entry in one non-base locale.
type Translation struct {
	Locale          string `json:"locale"`
	TranslationText string `json:"translationText"`
}

// TableInfo describes a localization table owned by a universe.
type TableInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	OwnerType string `json:"ownerType,omitempty"`
	OwnerID   int64  `json:"ownerId,omitempty"`
	AssetID   int64  `json:"assetId,omitempty"`
}

// TableMetadata is returned by the table metadata endpoint.
type TableMetadata struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UpdateResult summarizes a table update.
type UpdateResult struct {
	Failed   int
	Modified int
}

// entriesPage accepts both {"entries": [...]} and {"data": [...]}.
type entriesPage struct {
	Entries    []Entry `json:"entries"`
	Data       []Entry `json:"data"`
	NextCursor string  `json:"nextPageCursor"`
}

type updateRequest struct {
	Entries []Entry `json:"entries"`
}

type updateResponse struct {
	Failed   []json.RawMessage `json:"failedEntriesAndTranslations"`
	Modified []json.RawMessage `json:"modifiedEntriesAndTranslations"`
}

type listTablesResponse struct {
	Data []TableInfo `json:"data"`
}
