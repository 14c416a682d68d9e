// Command juiceplant runs one or more orange juice plants for a fixed time and
// prints how many oranges were processed, bottled and wasted.
//
// Usage:
//
//	juiceplant [--config juiceplant.toml] [--plants 2] [--workers 15] [--duration 5s]
//	juiceplant config
//
// Settings come from defaults, the TOML file, JUICE_* environment variables
// (optionally seeded from a .env file) and finally the flags. Interrupting
// the process stops the plants early; the summary still reflects every
// orange finished before the stop.
package main
