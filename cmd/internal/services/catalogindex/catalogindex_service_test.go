package catalogindex

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
)

func TestNormalizeQueryText(t *testing.T) {
	t.Run("размер разбивается на числа", func(t *testing.T) {
		assert.Equal(t, "болт 8 30 дин 933", NormalizeQueryText("Болт 8x30 дин 933"))
	})

	t.Run("цепочка размеров", func(t *testing.T) {
		assert.Equal(t, "лист 1 2 3", NormalizeQueryText("лист 1x2x3"))
	})

	t.Run("скобки и знаки становятся пробелами", func(t *testing.T) {
		assert.Equal(t, "молния серая 308", NormalizeQueryText("Молния серая (308)"))
	})

	t.Run("е вместо е с точками", func(t *testing.T) {
		assert.Equal(t, "желтый", NormalizeQueryText("жёлтый"))
	})
}

func TestProfileQuery(t *testing.T) {
	t.Run("числа и токены", func(t *testing.T) {
		profile := ProfileQuery("спанбонд 70 белый")
		assert.Equal(t, []string{"70"}, profile.Numbers)
		assert.Equal(t, []string{"70"}, profile.EffectiveNumbers)
		assert.Equal(t, []string{"спанбонд", "бел"}, profile.Tokens)
		assert.False(t, profile.HasQtyUnit)
	})

	t.Run("одно число с единицей выбрасывается из фильтра", func(t *testing.T) {
		profile := ProfileQuery("мел белый 2 коробочки")
		assert.Equal(t, []string{"2"}, profile.Numbers)
		assert.Empty(t, profile.EffectiveNumbers)
		assert.Equal(t, []string{"мел", "бел"}, profile.Tokens)
		assert.True(t, profile.HasQtyUnit)
	})

	t.Run("размер дает два числа без единицы", func(t *testing.T) {
		profile := ProfileQuery("поролон 100x200")
		assert.Equal(t, []string{"100", "200"}, profile.Numbers)
		assert.Equal(t, []string{"100", "200"}, profile.EffectiveNumbers)
	})
}

func TestFilterAndRank(t *testing.T) {
	service := &Service{}

	product := func(id int64, sku, title string) db.Product {
		return db.Product{
			ID:       id,
			Sku:      sql.NullString{String: sku, Valid: sku != ""},
			TitleRu:  title,
			Price:    10,
			StockQty: 5,
		}
	}

	t.Run("строгий фильтр по цветовому корню", func(t *testing.T) {
		profile := ProfileQuery("спанбонд 70 белый")
		rows := []db.Product{
			product(1, "SB-70-W", "Спанбонд 70 белый"),
			product(2, "SB-70-B", "Спанбонд 70 коричневый"),
		}
		candidates := service.filterAndRank(profile, profile.EffectiveNumbers, rows)

		if assert.Len(t, candidates, 1) {
			assert.Equal(t, int64(1), candidates[0].ID)
		}
	})

	t.Run("кандидат без требуемого числа отбрасывается", func(t *testing.T) {
		profile := ProfileQuery("спанбонд 70")
		rows := []db.Product{
			product(1, "SB-70-W", "Спанбонд 70 белый"),
			product(3, "SB-20-W", "Спанбонд 20 белый"),
		}
		candidates := service.filterAndRank(profile, profile.EffectiveNumbers, rows)

		if assert.Len(t, candidates, 1) {
			assert.Equal(t, int64(1), candidates[0].ID)
		}
	})

	t.Run("префиксное совпадение токена", func(t *testing.T) {
		profile := ProfileQuery("мел белый 2 коробочки")
		rows := []db.Product{
			product(1, "", "Карандаш меловой белый для разметки"),
			product(2, "", "Липа контактная белый 20мм"),
		}
		candidates := service.filterAndRank(profile, profile.EffectiveNumbers, rows)

		if assert.Len(t, candidates, 1) {
			assert.Contains(t, candidates[0].TitleRu, "мел")
		}
	})

	t.Run("бонус за din 933", func(t *testing.T) {
		profile := ProfileQuery("болт 8x30 din 933")
		rows := []db.Product{
			product(1, "", "Болт 8 30 din 933"),
			product(2, "", "Болт 6 20 din 912"),
		}
		candidates := service.filterAndRank(profile, nil, rows)

		if assert.Len(t, candidates, 2) {
			assert.Equal(t, int64(1), candidates[0].ID)
			assert.Greater(t, candidates[0].Score, candidates[1].Score)
		}
	})

	t.Run("совпадение sku поднимает кандидата", func(t *testing.T) {
		profile := ProfileQuery("спанбонд sb 70 w")
		rows := []db.Product{
			product(1, "SB-70-W", "Спанбонд 70 белый"),
			product(2, "SB-70-B", "Спанбонд 70 коричневый"),
		}
		candidates := service.filterAndRank(profile, nil, rows)

		if assert.NotEmpty(t, candidates) {
			assert.Equal(t, int64(1), candidates[0].ID)
		}
	})
}
