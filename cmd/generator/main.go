// Command generator fabricates a synthetic order feed from customer
// and product catalogs and writes it as NDJSON, optionally publishing
// each order to Kafka as well.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"industry-pulse/internal/broker"
	"industry-pulse/internal/generator"
	"industry-pulse/internal/ingest"
	"industry-pulse/internal/models"
	"industry-pulse/internal/util"
)

func main() {
	var (
		customersPath   = flag.String("customers", "", "path to csv file with customers (required)")
		productsPath    = flag.String("products", "", "path to csv file with products (required)")
		outPath         = flag.String("out", "./data/recent_orders.json", "path to write the NDJSON order feed")
		days            = flag.Int("days", 2, "number of days to generate, ending today")
		maxOrdersPerDay = flag.Int("max-orders-per-day", 1000, "maximum orders per generated day")
		seed            = flag.Int64("seed", time.Now().UnixNano(), "random seed (fixed seed gives a reproducible feed)")
		kafkaBrokers    = flag.String("kafka-brokers", "", "comma-separated kafka brokers; empty disables publishing")
		kafkaTopic      = flag.String("kafka-topic", "generated-orders", "kafka topic for generated orders")
	)
	flag.Parse()

	if *customersPath == "" || *productsPath == "" {
		log.Fatal("both --customers and --products are required")
	}

	if err := util.InitLogger("development"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	customers, err := ingest.ReadCustomersFile(*customersPath)
	if err != nil {
		log.Fatalf("Failed to load customer catalog: %v", err)
	}
	products, err := ingest.ReadProductsFile(*productsPath)
	if err != nil {
		log.Fatalf("Failed to load product catalog: %v", err)
	}

	gen, err := generator.New(customers, products, *seed)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	end := time.Now().UTC()
	orders, err := gen.GenerateFeed(generator.Config{
		StartDate:       end.AddDate(0, 0, -(*days - 1)),
		EndDate:         end,
		MaxOrdersPerDay: *maxOrdersPerDay,
	})
	if err != nil {
		log.Fatalf("Failed to generate orders: %v", err)
	}

	log.Printf("Generated %d orders, writing them to %s", len(orders), *outPath)
	if err := ingest.WriteOrdersFile(*outPath, orders); err != nil {
		log.Fatalf("Failed to write order feed: %v", err)
	}

	if *kafkaBrokers != "" {
		publishOrders(strings.Split(*kafkaBrokers, ","), *kafkaTopic, orders)
	}

	log.Println("Writing done.")
}

func publishOrders(brokers []string, topic string, orders []models.Order) {
	producer := broker.NewProducer(brokers, topic)
	defer producer.Close()
	publisher := broker.NewEventPublisher(producer)

	ctx := context.Background()
	for i := range orders {
		event := &models.OrderGeneratedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderGenerated,
				Timestamp: time.Now().UTC(),
			},
			Order: orders[i],
		}
		if err := publisher.PublishOrderGenerated(ctx, event); err != nil {
			log.Fatalf("Failed to publish order %s: %v", orders[i].OrderID, err)
		}
	}
	log.Printf("Published %d orders to topic %s", len(orders), topic)
}
