package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE map_templates (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(32) NOT NULL CHECK (type IN ('FDA', 'Custom')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE recipe_templates (
				id UUID PRIMARY KEY,
				map_template_id UUID NOT NULL REFERENCES map_templates(id) ON DELETE CASCADE,
				identifier VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				version INT NOT NULL DEFAULT 1 CHECK (version >= 1),
				overridden_by UUID UNIQUE REFERENCES recipe_templates(id),
				first_version UUID,
				commitment_action VARCHAR(32),
				trigger_action VARCHAR(32),
				fulfills UUID REFERENCES recipe_templates(id),
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				UNIQUE (map_template_id, identifier, version)
			);

			CREATE INDEX idx_recipe_templates_map_template_id ON recipe_templates(map_template_id);
			CREATE INDEX idx_recipe_templates_identifier ON recipe_templates(map_template_id, identifier);

			CREATE TABLE recipe_flow_templates (
				id UUID PRIMARY KEY,
				recipe_template_id UUID NOT NULL REFERENCES recipe_templates(id) ON DELETE CASCADE,
				event_type VARCHAR(32) NOT NULL,
				role_type VARCHAR(32) NOT NULL CHECK (role_type IN ('Input', 'Output')),
				action VARCHAR(32) NOT NULL,
				identifier VARCHAR(255) NOT NULL,
				interactions INT,
				UNIQUE (recipe_template_id, identifier)
			);

			CREATE TABLE field_groups (
				id UUID PRIMARY KEY,
				recipe_flow_template_id UUID NOT NULL REFERENCES recipe_flow_templates(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				class VARCHAR(64) NOT NULL
			);

			CREATE INDEX idx_field_groups_flow ON field_groups(recipe_flow_template_id);

			CREATE TABLE data_fields (
				id UUID PRIMARY KEY,
				recipe_flow_template_id UUID NOT NULL REFERENCES recipe_flow_templates(id) ON DELETE CASCADE,
				group_id UUID REFERENCES field_groups(id) ON DELETE SET NULL,
				field_identifier VARCHAR(255) NOT NULL,
				field_class VARCHAR(64) NOT NULL,
				field VARCHAR(255) NOT NULL,
				field_type VARCHAR(32) NOT NULL,
				note TEXT,
				required BOOLEAN NOT NULL DEFAULT false,
				flow_through VARCHAR(32),
				inherits UUID REFERENCES data_fields(id),
				accept_default BOOLEAN NOT NULL DEFAULT false,
				default_value TEXT,
				UNIQUE (recipe_flow_template_id, field_identifier)
			);

			CREATE TABLE blacklist_rules (
				id UUID PRIMARY KEY,
				map_template_id UUID NOT NULL REFERENCES map_templates(id) ON DELETE CASCADE,
				recipe_template_id UUID NOT NULL REFERENCES recipe_templates(id) ON DELETE CASCADE,
				recipe_template_predecessor_id UUID NOT NULL REFERENCES recipe_templates(id) ON DELETE CASCADE,
				UNIQUE (map_template_id, recipe_template_id, recipe_template_predecessor_id)
			);

			CREATE INDEX idx_blacklist_rules_successor ON blacklist_rules(recipe_template_id);
			CREATE INDEX idx_blacklist_rules_predecessor ON blacklist_rules(recipe_template_predecessor_id);

			CREATE TABLE template_access (
				id UUID PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL,
				recipe_template_id UUID NOT NULL REFERENCES recipe_templates(id) ON DELETE CASCADE,
				UNIQUE (agent_id, recipe_template_id)
			);

			CREATE TABLE recipes (
				id UUID PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				note TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_recipes_agent_id ON recipes(agent_id);

			CREATE TABLE recipe_processes (
				id UUID PRIMARY KEY,
				recipe_id UUID NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				recipe_template_id UUID NOT NULL REFERENCES recipe_templates(id),
				name VARCHAR(255) NOT NULL
			);

			CREATE INDEX idx_recipe_processes_recipe_id ON recipe_processes(recipe_id);

			CREATE TABLE process_edges (
				id UUID PRIMARY KEY,
				recipe_id UUID NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				recipe_process_id UUID NOT NULL REFERENCES recipe_processes(id) ON DELETE CASCADE,
				predecessor_id UUID NOT NULL REFERENCES recipe_processes(id) ON DELETE CASCADE,
				UNIQUE (recipe_process_id, predecessor_id)
			);

			CREATE INDEX idx_process_edges_recipe_id ON process_edges(recipe_id);
		`,
		2: `
			CREATE TABLE recipe_resources (
				recipe_id UUID NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				resource_specification_id UUID NOT NULL,
				position INT NOT NULL,
				PRIMARY KEY (recipe_id, resource_specification_id)
			);
		`,
	}
}
