package models

type StoreDriver string

const (
	FileDriver     StoreDriver = "file"
	SQLiteDriver   StoreDriver = "sqlite"
	PostgresDriver StoreDriver = "postgres"
)
