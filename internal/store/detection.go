package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/machidyo/MediaPipeHandTracking/internal/landmark"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Detection is one logged result packet that carried at least one hand.
type Detection struct {
	ID        string
	PacketTS  int64
	HandCount int
	CreatedAt time.Time
}

// DetectionRepository provides operations on the detection log.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// Log records a packet's hands. Landmarks are stored normalized (wrist at
// origin, unit hand scale) so entries compare across frame sizes. Packets
// with zero hands are not recorded.
func (r *DetectionRepository) Log(packetTS int64, hands []landmark.Hand) (string, error) {
	if len(hands) == 0 {
		return "", nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO detections (id, packet_ts, hand_count) VALUES (?, ?, ?)`,
		id, packetTS, len(hands),
	); err != nil {
		return "", err
	}

	for handIndex, hand := range hands {
		normalized := hand.Normalize()
		for landmarkIndex, p := range normalized.Points {
			if _, err := tx.Exec(
				`INSERT INTO detection_landmarks (detection_id, hand_index, landmark_index, x, y, z)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, handIndex, landmarkIndex, p.X, p.Y, p.Z,
			); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return id, nil
}

// GetByID retrieves a detection by its ID.
func (r *DetectionRepository) GetByID(id string) (*Detection, error) {
	d := &Detection{}

	err := r.db.QueryRow(
		`SELECT id, packet_ts, hand_count, created_at FROM detections WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.PacketTS, &d.HandCount, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return d, nil
}

// Recent returns the most recent detections, newest first.
func (r *DetectionRepository) Recent(limit int) ([]Detection, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, packet_ts, hand_count, created_at
		 FROM detections ORDER BY packet_ts DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ID, &d.PacketTS, &d.HandCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	return detections, rows.Err()
}

// GetLandmarks returns the stored hands for a detection, rebuilt in hand and
// landmark order.
func (r *DetectionRepository) GetLandmarks(detectionID string) ([]landmark.Hand, error) {
	rows, err := r.db.Query(
		`SELECT hand_index, landmark_index, x, y, z
		 FROM detection_landmarks WHERE detection_id = ?
		 ORDER BY hand_index, landmark_index`,
		detectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hands []landmark.Hand
	for rows.Next() {
		var handIndex, landmarkIndex int
		var p landmark.Point3D
		if err := rows.Scan(&handIndex, &landmarkIndex, &p.X, &p.Y, &p.Z); err != nil {
			return nil, err
		}
		for len(hands) <= handIndex {
			hands = append(hands, landmark.Hand{})
		}
		hands[handIndex].Points = append(hands[handIndex].Points, p)
	}

	return hands, rows.Err()
}
