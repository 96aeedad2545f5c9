// Package store is the persistence layer of spec.md §3/§9: embedded
// SQLite (modernc.org/sqlite, pure Go, no cgo) tables for every entity,
// the indexes named in SPEC_FULL.md §3, and the two transactional
// boundaries of spec.md §5 (full re-plan, resolution).
package store

const schema = `
CREATE TABLE IF NOT EXISTS facilities (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	force TEXT NOT NULL,
	lat REAL,
	lon REAL
);

CREATE TABLE IF NOT EXISTS hospitals (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	lat REAL,
	lon REAL,
	total_beds INTEGER NOT NULL DEFAULT 0,
	occupied_beds INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	force TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	current_lat REAL,
	current_lon REAL,
	target_lat REAL,
	target_lon REAL,
	home_facility TEXT
);
CREATE INDEX IF NOT EXISTS idx_vehicles_force_status ON vehicles(force, status);

CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	force TEXT NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	status TEXT NOT NULL,
	current_lat REAL,
	current_lon REAL,
	target_lat REAL,
	target_lon REAL,
	assigned_vehicle TEXT,
	home_facility TEXT
);
CREATE INDEX IF NOT EXISTS idx_agents_force_status ON agents(force, status);

CREATE TABLE IF NOT EXISTS incidents (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	address TEXT,
	lat REAL,
	lon REAL,
	code TEXT NOT NULL,
	priority INTEGER NOT NULL,
	status TEXT NOT NULL,
	onda_verde INTEGER NOT NULL DEFAULT 0,
	assigned_force TEXT,
	assigned_vehicle TEXT,
	reported_at DATETIME NOT NULL,
	resolved_at DATETIME,
	resolution_notes TEXT,
	ai_response TEXT
);
CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(status);

CREATE TABLE IF NOT EXISTS dispatches (
	id TEXT PRIMARY KEY,
	incident_id TEXT NOT NULL,
	force TEXT NOT NULL,
	vehicle_id TEXT,
	agent_id TEXT,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(incident_id, force)
);
CREATE INDEX IF NOT EXISTS idx_dispatches_incident ON dispatches(incident_id);

CREATE TABLE IF NOT EXISTS calculated_routes (
	id TEXT PRIMARY KEY,
	incident_id TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	distance_km REAL NOT NULL,
	estimated_time_minutes REAL NOT NULL,
	priority_score REAL NOT NULL,
	geometry TEXT NOT NULL,
	status TEXT NOT NULL,
	calculated_at DATETIME NOT NULL,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_routes_incident_status ON calculated_routes(incident_id, status);

CREATE TABLE IF NOT EXISTS street_closures (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	closure_type TEXT NOT NULL,
	point_lat REAL,
	point_lon REAL,
	geometry TEXT,
	start_at DATETIME NOT NULL,
	end_at DATETIME,
	is_active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_closures_active_window ON street_closures(is_active, start_at, end_at);

CREATE TABLE IF NOT EXISTS traffic_counts (
	id TEXT PRIMARY KEY,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	count_type TEXT NOT NULL,
	count_value REAL NOT NULL,
	unit TEXT,
	timestamp DATETIME NOT NULL,
	period_minutes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_traffic_counts_timestamp ON traffic_counts(timestamp);

CREATE TABLE IF NOT EXISTS parking_spots (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	total_spaces INTEGER NOT NULL,
	available_spaces INTEGER NOT NULL,
	spot_type TEXT,
	is_paid INTEGER NOT NULL DEFAULT 0,
	max_duration_hours REAL,
	is_active INTEGER NOT NULL DEFAULT 1
);
`
