package models

// All lists the models migrated by AutoMigrate.
func All() []any {
	return []any{
		&ModerationRecordModel{},
		&PromotionTypeModel{},
		&PromotionRequestModel{},
		&SlotReservationModel{},
	}
}
