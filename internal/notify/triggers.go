package notify

import (
	"fmt"

	"gorm.io/gorm"
)

// InstallChangeTriggers creates the row-level triggers that emit a
// pg_notify on every insert, update and delete of the watched tables.
// Idempotent; runs after migration at boot.
func InstallChangeTriggers(db *gorm.DB) error {
	tables := map[string]string{
		"resources":   ChannelResources,
		"work_orders": ChannelWorkOrders,
	}
	for table, channel := range tables {
		fn := fmt.Sprintf(`
			CREATE OR REPLACE FUNCTION notify_%s() RETURNS trigger AS $$
			BEGIN
				PERFORM pg_notify('%s', '');
				RETURN NULL;
			END;
			$$ LANGUAGE plpgsql`, channel, channel)
		if err := db.Exec(fn).Error; err != nil {
			return err
		}
		trigger := fmt.Sprintf(`
			CREATE OR REPLACE TRIGGER %s_notify
			AFTER INSERT OR UPDATE OR DELETE ON %s
			FOR EACH ROW EXECUTE FUNCTION notify_%s()`, table, table, channel)
		if err := db.Exec(trigger).Error; err != nil {
			return err
		}
	}
	return nil
}
