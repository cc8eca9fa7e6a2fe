package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Detections table - one row per result packet with at least one hand
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			packet_ts INTEGER NOT NULL,
			hand_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Detection landmarks table - normalized landmark positions per hand
		`CREATE TABLE IF NOT EXISTS detection_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			detection_id TEXT NOT NULL REFERENCES detections(id) ON DELETE CASCADE,
			hand_index INTEGER NOT NULL,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_detection_landmarks_detection_id ON detection_landmarks(detection_id)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_packet_ts ON detections(packet_ts)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
