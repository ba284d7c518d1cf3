// Package models contains GORM persistence models for the order engine.
// Domain entities stay free of ORM tags; each model maps to and from its
// domain type with ToDomain and FromDomain.
//
// Structure:
//   - base.go: shared columns and the AutoMigrate list
//   - trade.go: sales orders, factory shipments, return orders and their items
//   - inventory.go: inventory records keyed by product, variant and batch
//   - finance.go: refund and receivable records, unique per source document
package models
