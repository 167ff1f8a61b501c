// Package models contains the GORM persistence models and their
// conversions to and from the domain aggregates. Domain entities never
// carry GORM tags beyond the shared base types; all mapping concerns
// live here.
package models
