package dto

// DatabaseStatus describes the health and size of the backing store.
type DatabaseStatus struct {
	Connected     bool         `json:"connected"`
	Database      string       `json:"database"`
	SizeBytes     int64        `json:"sizeBytes"`
	SchemaVersion int64        `json:"schemaVersion"`
	Tables        []TableStats `json:"tables"`
	OpenConns     int          `json:"openConnections"`
	InUseConns    int          `json:"inUseConnections"`
}

// TableStats is an estimated row count for one table.
type TableStats struct {
	Name string `json:"name" db:"name"`
	Rows int64  `json:"rows" db:"rows"`
}
