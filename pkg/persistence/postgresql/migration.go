package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE executions (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				status VARCHAR(50) NOT NULL DEFAULT 'RUNNING' CHECK (status IN ('RUNNING', 'COMPLETED', 'FAILED')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE TABLE steps (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				execution_id UUID NOT NULL REFERENCES executions(id),
				name TEXT NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'RUNNING' CHECK (status IN ('RUNNING', 'COMPLETED', 'FAILED')),
				registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE TABLE artifacts (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				step_id UUID NOT NULL REFERENCES steps(id),
				type VARCHAR(50) NOT NULL CHECK (type IN ('IMAGE', 'LOG', 'JSON_DATA')),
				description TEXT,
				content TEXT NOT NULL DEFAULT '',
				logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_executions_started_at ON executions(started_at);
			CREATE INDEX idx_steps_execution_id ON steps(execution_id, registered_at, id);
			CREATE INDEX idx_artifacts_step_id ON artifacts(step_id, logged_at, id);
			CREATE INDEX idx_artifacts_type ON artifacts(type);
		`,
	}
}
