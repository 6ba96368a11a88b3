package models

import "time"

// Organization is one row per tenant in the shared meta directory database.
// The generated ID is mirrored bit-for-bit into the tenant's own database.
type Organization struct {
	ID        int64     `db:"orgid"      json:"orgid"`
	Name      string    `db:"orgname"    json:"orgname"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subscriber is the signing-up administrator recorded in the meta store.
type Subscriber struct {
	ID        int64  `db:"subscriberid" json:"subscriberid"`
	FirstName string `db:"first_name"   json:"first_name"`
	LastName  string `db:"last_name"    json:"last_name"`
	OrgID     int64  `db:"orgid"        json:"orgid"`
	Active    bool   `db:"active"       json:"active"`
}

// SubscriberPlan links a subscriber to a plan and to the tenant database
// provisioned for it. The generated DB credentials are stored here so
// internal tooling can reach the tenant database later.
type SubscriberPlan struct {
	ID           int64     `db:"planrowid"           json:"planrowid"`
	SubscriberID int64     `db:"subscriberid"        json:"subscriberid"`
	PlanID       int       `db:"planid"              json:"planid"`
	Database     string    `db:"subscriber_database" json:"subscriber_database"`
	DBUser       string    `db:"db_user"             json:"db_user"`
	DBPassword   string    `db:"db_password"         json:"-"`
	StartDate    time.Time `db:"plan_start_date"     json:"plan_start_date"`
	Active       bool      `db:"active"              json:"active"`
}

// DirectoryEmployee is the cross-tenant employee directory row used for
// email/username uniqueness checks during future signups.
type DirectoryEmployee struct {
	ID        int64  `db:"empid"      json:"empid"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name"  json:"last_name"`
	OrgID     int64  `db:"orgid"      json:"orgid"`
	Username  string `db:"username"   json:"username"`
	PlanID    int    `db:"planid"     json:"planid"`
	Email     string `db:"email"      json:"email"`
	Active    bool   `db:"active"     json:"active"`
}
