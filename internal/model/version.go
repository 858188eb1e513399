package model

// ScheduleVersion is one row of schedule history. CreatedAt is kept as an
// ISO-8601 UTC string so the row reads identically from sqlite and postgres.
type ScheduleVersion struct {
	ID        int64  `db:"id"           json:"id"`
	CreatedAt string `db:"created_at"   json:"created_at"`
	Actor     string `db:"actor"        json:"actor"`
	Summary   string `db:"summary"      json:"summary"`
	Config    string `db:"config"       json:"config"`
	Metadata  string `db:"metadata"     json:"metadata"`
}
