package postgres

// Index names referenced by repositories when mapping unique violations.
const (
	uniqueUserEmail          = "users_email_key"
	uniqueBoxerUser          = "boxers_user_id_key"
	uniqueClubSlug           = "clubs_slug_key"
	uniquePendingMatchPair   = "idx_match_requests_pending_pair"
	uniqueMembershipUserClub = "membership_requests_user_id_club_id_key"
)

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_and_boxers",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_clubs",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_match_requests",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS AND BOXERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(320) NOT NULL,
    password_hash TEXT NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'BOXER',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT users_email_key UNIQUE (email),
    CONSTRAINT valid_role CHECK (role IN ('BOXER', 'COACH', 'GYM_OWNER', 'ADMIN'))
);

CREATE TABLE IF NOT EXISTS boxers (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    weight_kg NUMERIC(5,2),
    wins INTEGER NOT NULL DEFAULT 0,
    losses INTEGER NOT NULL DEFAULT 0,
    draws INTEGER NOT NULL DEFAULT 0,
    experience VARCHAR(20) NOT NULL,
    city VARCHAR(100) NOT NULL DEFAULT '',
    country VARCHAR(100) NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    searchable BOOLEAN NOT NULL DEFAULT TRUE,
    club_id UUID,
    gym_affiliation VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT boxers_user_id_key UNIQUE (user_id),
    CONSTRAINT valid_weight CHECK (weight_kg IS NULL OR (weight_kg > 0 AND weight_kg <= 200)),
    CONSTRAINT valid_record CHECK (wins >= 0 AND losses >= 0 AND draws >= 0),
    CONSTRAINT valid_experience CHECK (experience IN ('BEGINNER', 'AMATEUR', 'INTERMEDIATE', 'ADVANCED', 'PROFESSIONAL'))
);

CREATE INDEX IF NOT EXISTS idx_boxers_matchable ON boxers(experience, weight_kg) WHERE searchable;
CREATE INDEX IF NOT EXISTS idx_boxers_club_id ON boxers(club_id);
`

const migration001Down = `
DROP TABLE IF EXISTS boxers;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CLUBS AND MEMBERSHIP REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS clubs (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL REFERENCES users(id),
    name VARCHAR(255) NOT NULL,
    slug VARCHAR(255) NOT NULL,
    city VARCHAR(100) NOT NULL DEFAULT '',
    country VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT clubs_slug_key UNIQUE (slug)
);

ALTER TABLE boxers
    ADD CONSTRAINT fk_boxers_club FOREIGN KEY (club_id) REFERENCES clubs(id) ON DELETE SET NULL;

CREATE TABLE IF NOT EXISTS membership_requests (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    club_id UUID NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    message TEXT NOT NULL DEFAULT '',
    reviewed_by UUID REFERENCES users(id),
    reviewed_at TIMESTAMP WITH TIME ZONE,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT membership_requests_user_id_club_id_key UNIQUE (user_id, club_id),
    CONSTRAINT valid_membership_status CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED'))
);

CREATE INDEX IF NOT EXISTS idx_membership_requests_club_status ON membership_requests(club_id, status);
`

const migration002Down = `
DROP TABLE IF EXISTS membership_requests;
ALTER TABLE boxers DROP CONSTRAINT IF EXISTS fk_boxers_club;
DROP TABLE IF EXISTS clubs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: MATCH REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS match_requests (
    id UUID PRIMARY KEY,
    requester_id UUID NOT NULL REFERENCES boxers(id) ON DELETE CASCADE,
    target_id UUID NOT NULL REFERENCES boxers(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    message TEXT NOT NULL DEFAULT '',
    response_message TEXT NOT NULL DEFAULT '',
    proposed_date TIMESTAMP WITH TIME ZONE,
    proposed_venue VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    responded_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT no_self_request CHECK (requester_id <> target_id),
    CONSTRAINT valid_match_status CHECK (status IN ('PENDING', 'ACCEPTED', 'DECLINED', 'CANCELLED', 'EXPIRED'))
);

-- at most one PENDING request per ordered pair
CREATE UNIQUE INDEX IF NOT EXISTS idx_match_requests_pending_pair
    ON match_requests(requester_id, target_id) WHERE status = 'PENDING';

CREATE INDEX IF NOT EXISTS idx_match_requests_target ON match_requests(target_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_requests_requester ON match_requests(requester_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_requests_pending_expiry ON match_requests(expires_at) WHERE status = 'PENDING';
`

const migration003Down = `
DROP TABLE IF EXISTS match_requests;
`
