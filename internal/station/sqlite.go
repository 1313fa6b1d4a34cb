// This file loads an optional supplementary station dataset from an
// on-disk SQLite database, the way the teacher's storage package opened a
// read-only SQLite file for migration/legacy data access — here repurposed
// to serve a static geographic reference table rather than a weather cache.
package station

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LoadSQLite opens a SQLite database at path read-only and loads its
// "stations" table (columns: icao, name, lat, lon, elev_ft) into a
// Registry. It never writes to the database.
func LoadSQLite(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("station: open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT icao, name, lat, lon, elev_ft FROM stations`)
	if err != nil {
		return nil, fmt.Errorf("station: query stations table: %w", err)
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		var elev sql.NullInt64
		if err := rows.Scan(&s.ICAO, &s.Name, &s.LatDeg, &s.LonDeg, &elev); err != nil {
			return nil, fmt.Errorf("station: scan row: %w", err)
		}
		if elev.Valid {
			s.ElevFt = int(elev.Int64)
			s.HasElev = true
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("station: iterate rows: %w", err)
	}

	return NewRegistry(stations), nil
}
