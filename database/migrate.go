package database

import (
	"fmt"

	"contratos-backend/models"

	"gorm.io/gorm"
)

// Models lists every table managed by Migrate, parents first.
var Models = []any{
	&models.Company{},
	&models.User{},
	&models.Contract{},
	&models.UserContract{},
	&models.Amendment{},
	&models.Participant{},
	&models.TaxRateOverride{},
	&models.ContractART{},
	&models.InsurancePolicy{},
	&models.MeasurementReport{},
	&models.ReportSnapshot{},
	&models.Invoice{},
	&models.Payment{},
	&models.ApportionmentRun{},
	&models.IdempotencyKey{},
}

type check struct {
	table, name, expr string
}

var checks = []check{
	{"participants", "chk_participants_share_range", "share >= 0 AND share <= 100"},
	{"tax_rate_overrides", "chk_tax_rate_overrides_rate_range", "rate >= 0 AND rate <= 100"},
	{"tax_rate_overrides", "chk_tax_rate_overrides_base", "base IN ('GROSS', 'NET')"},
	{"contracts", "chk_contracts_original_value_nonneg", "original_value >= 0"},
	{"contracts", "chk_contracts_duration_nonneg", "original_duration_days >= 0"},
	{"measurement_reports", "chk_reports_period", "period_end >= period_start"},
	{"measurement_reports", "chk_reports_amounts_nonneg", "measured_amount >= 0 AND deduction_amount >= 0"},
	{"measurement_reports", "chk_reports_deduction_le_measured", "deduction_amount <= measured_amount"},
	{"measurement_reports", "chk_reports_approved_amount", "approved_amount = measured_amount - deduction_amount"},
	{"measurement_reports", "chk_reports_cancellation_reason",
		"(status = 'CANCELLED') = (cancellation_reason IS NOT NULL AND btrim(cancellation_reason) <> '')"},
	{"invoices", "chk_invoices_due_after_issue", "due_date >= issue_date"},
	{"invoices", "chk_invoices_gross_nonneg", "gross_value >= 0"},
	{"invoices", "chk_invoices_net",
		"net_value = gross_value - (iss_withheld + inss_withheld + irrf_withheld + csll_withheld + pis_withheld + cofins_withheld)"},
	{"payments", "chk_payments_amount_positive", "amount > 0"},
	{"contract_arts", "chk_contract_arts_finished_on", "finished OR finished_on IS NULL"},
	{"insurance_policies", "chk_insurance_policies_kind", "kind IN ('PERFORMANCE_BOND', 'ENGINEERING_RISK', 'CIVIL_LIABILITY')"},
	{"insurance_policies", "chk_insurance_policies_value_nonneg", "value IS NULL OR value >= 0"},
}

func (c check) sql() string {
	return fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s
		ADD CONSTRAINT %[2]s
		CHECK (%[3]s);
	END IF;
END $$;`, c.table, c.name, c.expr)
}

var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_one_leader ON participants (contract_id) WHERE is_leader`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_amendments_contract_number ON amendments (contract_id, number) WHERE number IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_user_contracts_contract ON user_contracts (contract_id)`,
}

// The share sum is checked at commit (or at SET CONSTRAINTS ... IMMEDIATE) so that a
// participant list can be replaced row by row inside one transaction.
var shareSum = []string{`
CREATE OR REPLACE FUNCTION assert_participant_share_sum(cid BIGINT) RETURNS void AS $$
DECLARE
	total NUMERIC(7,2);
BEGIN
	SELECT COALESCE(SUM(share), 0) INTO total FROM participants WHERE contract_id = cid;
	IF total <> 0 AND total <> 100.00 THEN
		RAISE EXCEPTION 'participant shares of contract % sum to %, expected 100.00', cid, total
			USING ERRCODE = 'check_violation';
	END IF;
END;
$$ LANGUAGE plpgsql;`, `
CREATE OR REPLACE FUNCTION check_participant_share_sum() RETURNS trigger AS $$
BEGIN
	IF TG_OP IN ('UPDATE', 'DELETE') THEN
		PERFORM assert_participant_share_sum(OLD.contract_id);
	END IF;
	IF TG_OP IN ('INSERT', 'UPDATE') THEN
		PERFORM assert_participant_share_sum(NEW.contract_id);
	END IF;
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;`, `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_participants_share_sum') THEN
		CREATE CONSTRAINT TRIGGER trg_participants_share_sum
		AFTER INSERT OR UPDATE OR DELETE ON participants
		DEFERRABLE INITIALLY DEFERRED
		FOR EACH ROW EXECUTE FUNCTION check_participant_share_sum();
	END IF;
END $$;`,
}

// Migrate applies idempotent schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - CHECK constraints for amounts, periods and shares
// - partial unique indexes (one leader per contract, amendment numbers)
// - the deferred participant share-sum trigger
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(Models...); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		for _, c := range checks {
			if err := tx.Exec(c.sql()).Error; err != nil {
				return fmt.Errorf("check constraint %s failed: %w", c.name, err)
			}
		}

		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		for _, stmt := range shareSum {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("share sum trigger migration failed: %w", err)
			}
		}
		return nil
	})
}
