// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags or infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain / FromDomain convert between the two
// 4. Repositories only read and write models
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - inventory.go: stock accounts, ledger entries, reservations, alerts and threshold overrides
package models
