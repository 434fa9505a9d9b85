// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package qbtest

import "testing"

// Fixture identifiers served by NewStandard.
const (
	AppName     = "Project Tracker"
	AppDBID     = "bqapp0001"
	TasksDBID   = "bqtsk0002"
	ContactDBID = "bqcnt0003"
	Username    = "jdoe@example.com"
	Password    = "s3cret"
	AppToken    = "apptoken-123"

	// RecordIDField is the id of the recordid field in every fixture table.
	RecordIDField = "3"
)

// AppSchema is the application table: two child tables and the built-in fields.
const AppSchema = `
<name>Project Tracker</name>
<chdbids>
  <chdbid name="_dbid_tasks">` + TasksDBID + `</chdbid>
  <chdbid name="_dbid_contacts">` + ContactDBID + `</chdbid>
</chdbids>
<fields>
  <field id="1" field_type="timestamp" base_type="int64"><label>Date Created</label></field>
  <field id="3" field_type="recordid" base_type="int64"><label>Record ID#</label></field>
</fields>`

// TasksSchema describes the tasks table.
const TasksSchema = `
<name>Tasks</name>
<fields>
  <field id="3" field_type="recordid" base_type="int64"><label>Record ID#</label></field>
  <field id="6" field_type="text" base_type="text"><label>Status</label></field>
  <field id="7" field_type="float" base_type="float"><label>Priority</label></field>
  <field id="8" field_type="text" base_type="text"><label>Assigned To</label></field>
</fields>`

// TasksRecords is the DoQuery payload for the tasks table.
const TasksRecords = `
<record><record_id_>7</record_id_><status>Open</status><priority>2</priority><assigned_to>jdoe</assigned_to></record>
<record><record_id_>8</record_id_><status>Closed</status><priority>5</priority><assigned_to>asmith</assigned_to></record>`

// NewStandard returns a server preloaded with the Project Tracker application.
func NewStandard(t testing.TB) *Server {
	t.Helper()
	s := NewServer(t)
	s.AddUser(Username, Password)
	s.AddApp(AppName, AppDBID)
	s.SetSchema(AppDBID, AppSchema)
	s.SetSchema(TasksDBID, TasksSchema)
	s.SetRecords(TasksDBID, TasksRecords)
	s.SetRecords(AppDBID, `<record><record_id_>7</record_id_><date_created>1700000000000</date_created></record>`)
	s.SetChanged(TasksDBID, `<record><record_id_>8</record_id_><status>Closed</status></record>`)
	return s
}
