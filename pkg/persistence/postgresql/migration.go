package postgresql

// migrations returns the schema statements keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id              VARCHAR(255) PRIMARY KEY,
				name            VARCHAR(255) NOT NULL,
				description     TEXT NOT NULL DEFAULT '',
				category        VARCHAR(255) NOT NULL DEFAULT '',
				document        JSONB NOT NULL,
				is_active       BOOLEAN NOT NULL DEFAULT TRUE,
				execution_count INTEGER NOT NULL DEFAULT 0,
				created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at      TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_created_at ON workflows (created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_workflows_is_active ON workflows (is_active) WHERE deleted_at IS NULL;
		`,
		2: `
			CREATE TABLE IF NOT EXISTS plan_sessions (
				id           VARCHAR(255) PRIMARY KEY,
				status       VARCHAR(32) NOT NULL,
				prompt       TEXT NOT NULL,
				ai_provider  VARCHAR(255) NOT NULL DEFAULT '',
				ai_model     VARCHAR(255) NOT NULL DEFAULT '',
				defects      JSONB NOT NULL DEFAULT '[]',
				workflow_id  VARCHAR(255),
				cached       BOOLEAN NOT NULL DEFAULT FALSE,
				created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_plan_sessions_created_at ON plan_sessions (created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_plan_sessions_status ON plan_sessions (status);
		`,
	}
}
