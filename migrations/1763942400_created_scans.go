package migrations

import (
	"encoding/json"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/daos"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/models"
)

func init() {
	m.Register(func(db dbx.Builder) error {
		jsonData := `{
			"id": "q7scanslogv01aa",
			"created": "2025-11-24 02:00:00.000Z",
			"updated": "2025-11-24 02:00:00.000Z",
			"name": "scans",
			"type": "base",
			"system": false,
			"schema": [
				{
					"system": false,
					"id": "sc4ncode",
					"name": "code",
					"type": "text",
					"required": true,
					"presentable": true,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"pattern": ""
					}
				},
				{
					"system": false,
					"id": "sc4nscnr",
					"name": "scanner",
					"type": "text",
					"required": false,
					"presentable": false,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"pattern": ""
					}
				},
				{
					"system": false,
					"id": "sc4ntick",
					"name": "tickets",
					"type": "number",
					"required": false,
					"presentable": false,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"noDecimal": true
					}
				},
				{
					"system": false,
					"id": "sc4namnt",
					"name": "amount",
					"type": "number",
					"required": false,
					"presentable": false,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"noDecimal": true
					}
				},
				{
					"system": false,
					"id": "sc4nvldu",
					"name": "valid_until",
					"type": "text",
					"required": false,
					"presentable": false,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"pattern": ""
					}
				},
				{
					"system": false,
					"id": "sc4noutc",
					"name": "outcome",
					"type": "select",
					"required": true,
					"presentable": false,
					"unique": false,
					"options": {
						"maxSelect": 1,
						"values": [
							"accepted",
							"duplicate",
							"expired",
							"invalid"
						]
					}
				},
				{
					"system": false,
					"id": "sc4nmesg",
					"name": "message",
					"type": "text",
					"required": false,
					"presentable": false,
					"unique": false,
					"options": {
						"min": null,
						"max": null,
						"pattern": ""
					}
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`idx_scans_accepted_code`" + ` ON ` + "`scans`" + ` (` + "`code`" + `) WHERE ` + "`outcome`" + ` = 'accepted'",
				"CREATE INDEX ` + "`idx_scans_code`" + ` ON ` + "`scans`" + ` (` + "`code`" + `)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null,
			"options": {}
		}`

		collection := &models.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return daos.New(db).SaveCollection(collection)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("scans")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
