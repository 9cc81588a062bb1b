package main

import (
	"context"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/babajiachar/storefront-api/internal/auth"
	"github.com/babajiachar/storefront-api/internal/config"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/lock"
	"github.com/babajiachar/storefront-api/internal/obs"
)

// Seeds the catalog, store locations, and an optional admin account. Safe to
// run repeatedly: products and stores are upserts, the admin insert is skipped
// when the email already exists.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	store := db.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	locker := lock.Locker{R: rdb}
	err = locker.WithLock(ctx, "seed:catalog", time.Minute, func(ctx context.Context) error {
		for _, p := range seedProducts() {
			if err := store.UpsertProduct(ctx, p); err != nil {
				return err
			}
			logger.Info().Str("product", p.ID).Msg("seeded product")
		}
		for _, loc := range seedStores() {
			if err := store.UpsertStoreLocation(ctx, loc); err != nil {
				return err
			}
			logger.Info().Str("store", loc.ID).Msg("seeded store")
		}
		return seedAdmin(ctx, store)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
	logger.Info().Msg("seed complete")
}

func seedAdmin(ctx context.Context, store *db.Store) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	if _, err := store.GetUserByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = store.CreateUser(ctx, email, hash, auth.RoleAdmin)
	return err
}

func seedProducts() []db.Product {
	return []db.Product{
		{
			ID:            "aam-ka-achar",
			NameEN:        "Mango Pickle",
			NameHI:        "आम का अचार",
			TaglineEN:     "Sun-cured raw mango in mustard oil",
			TaglineHI:     "सरसों के तेल में धूप में पका कच्चा आम",
			DescriptionEN: "Traditional Banarasi-style mango pickle made from hand-cut raw mangoes, whole spices and cold-pressed mustard oil.",
			DescriptionHI: "हाथ से कटे कच्चे आम, साबुत मसालों और कच्ची घानी सरसों के तेल से बना पारंपरिक अचार।",
			Category:      "pickle",
			Featured:      true,
			Variants: []db.Variant{
				{Size: "250g", MRPPaise: 19900, Stock: 120},
				{Size: "500g", MRPPaise: 34900, Stock: 80},
				{Size: "1kg", MRPPaise: 59900, Stock: 40},
			},
		},
		{
			ID:            "nimbu-ka-achar",
			NameEN:        "Lemon Pickle",
			NameHI:        "नींबू का अचार",
			TaglineEN:     "Tangy, slow-matured lemon pickle",
			TaglineHI:     "खट्टा, धीरे-धीरे पका नींबू का अचार",
			DescriptionEN: "Whole lemons matured for months until the peel melts, balanced with rock salt and home-ground spices.",
			DescriptionHI: "महीनों तक पके साबुत नींबू, सेंधा नमक और घर के पिसे मसालों के साथ।",
			Category:      "pickle",
			Variants: []db.Variant{
				{Size: "250g", MRPPaise: 17900, Stock: 150},
				{Size: "500g", MRPPaise: 29900, Stock: 90},
			},
		},
		{
			ID:            "mirch-ka-achar",
			NameEN:        "Red Chilli Pickle",
			NameHI:        "लाल मिर्च का अचार",
			TaglineEN:     "Stuffed Banarasi red chillies",
			TaglineHI:     "भरवां बनारसी लाल मिर्च",
			DescriptionEN: "Fat red chillies stuffed with fennel, mustard and amchur, rested in mustard oil.",
			DescriptionHI: "सौंफ, सरसों और अमचूर से भरी मोटी लाल मिर्च, सरसों के तेल में।",
			Category:      "pickle",
			Variants: []db.Variant{
				{Size: "400g", MRPPaise: 24900, Stock: 60},
			},
		},
		{
			ID:            "mixed-achar",
			NameEN:        "Mixed Pickle",
			NameHI:        "मिक्स अचार",
			TaglineEN:     "Mango, lime and chilli in one jar",
			TaglineHI:     "आम, नींबू और मिर्च एक ही जार में",
			DescriptionEN: "A household staple: seasonal vegetables and fruit pickled together the way it is done at home.",
			DescriptionHI: "घर जैसा मिला-जुला अचार, मौसमी सब्ज़ियों और फलों से।",
			Category:      "pickle",
			Featured:      true,
			Variants: []db.Variant{
				{Size: "250g", MRPPaise: 18900, Stock: 110},
				{Size: "500g", MRPPaise: 32900, Stock: 70},
			},
		},
	}
}

func seedStores() []db.StoreLocation {
	return []db.StoreLocation{
		{
			ID:        "prayagraj-civil-lines",
			Name:      "Civil Lines Flagship",
			Address:   "12 MG Marg, Civil Lines, Prayagraj, UP 211001",
			Phone:     "+91 94150 00001",
			Latitude:  25.4520,
			Longitude: 81.8340,
			Hours:     "10:00-20:00",
		},
		{
			ID:        "prayagraj-katra",
			Name:      "Katra Market Outlet",
			Address:   "Katra Bazaar, near University Road, Prayagraj, UP 211002",
			Phone:     "+91 94150 00002",
			Latitude:  25.4672,
			Longitude: 81.8536,
			Hours:     "11:00-21:00",
		},
	}
}
