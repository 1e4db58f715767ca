package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vehicles (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    fuel_type            TEXT NOT NULL DEFAULT '',
    current_mileage      INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refuelings (
    id                   TEXT PRIMARY KEY,
    vehicle_id           TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    date                 TEXT NOT NULL,
    mileage              INTEGER NOT NULL,
    volume               REAL NOT NULL,
    fuel_type            TEXT NOT NULL DEFAULT '',
    full_tank            INTEGER NOT NULL DEFAULT 1,
    total_cost           REAL,
    consumption_rate     REAL
);

CREATE TABLE IF NOT EXISTS consumables (
    id                   TEXT PRIMARY KEY,
    vehicle_id           TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    name                 TEXT NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    installation_mileage INTEGER NOT NULL,
    installation_date    TEXT NOT NULL,
    replacement_mileage  INTEGER,
    replacement_date     TEXT,
    interval_mileage     INTEGER,
    interval_days        INTEGER,
    active               INTEGER NOT NULL DEFAULT 1,
    cost                 REAL NOT NULL DEFAULT 0,
    service_cost         REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cost_records (
    id                   TEXT PRIMARY KEY,
    vehicle_id           TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    date                 TEXT NOT NULL,
    mileage              INTEGER NOT NULL,
    category             TEXT NOT NULL,
    tag                  TEXT NOT NULL DEFAULT '',
    description          TEXT NOT NULL DEFAULT '',
    cost                 REAL NOT NULL DEFAULT 0,
    service_cost         REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_refuelings_vehicle ON refuelings(vehicle_id, date, mileage);
CREATE INDEX IF NOT EXISTS idx_consumables_vehicle ON consumables(vehicle_id, installation_date);
CREATE INDEX IF NOT EXISTS idx_cost_records_vehicle ON cost_records(vehicle_id, date);
`
