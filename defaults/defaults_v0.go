package defaults

import (
	"github.com/sahib/config"
)

// DefaultsV0 is the default config validation for nandfs
var DefaultsV0 = config.DefaultMapping{
	"repo": config.DefaultMapping{
		"password_command": config.DefaultEntry{
			Default:      "",
			NeedsRestart: false,
			Docs: `Command to fetch the password from, e.g. »pass nandfs/repo«.

  The command is run through the shell and should print the password
  on stdout. Empty means asking on the terminal.
`,
		},
	},
	"cache": config.DefaultMapping{
		"max_slots": config.DefaultEntry{
			Default:      10,
			NeedsRestart: false,
			Docs:         "How many short operation cache slots to use. 0 disables the cache.",
			Validator:    config.IntRangeValidator(0, 20),
		},
		"chunk_size": config.DefaultEntry{
			Default:      2048,
			NeedsRestart: true,
			Docs: `Payload size of one chunk in bytes.

  Do not change this on a device that already holds data, the chunk
  layout on disk depends on it.
`,
			Validator: config.IntRangeValidator(64, 64*1024),
		},
	},
	"store": config.DefaultMapping{
		"backend": config.DefaultEntry{
			Default:      "badger",
			NeedsRestart: true,
			Docs:         "What chunk store to use below the device.",
			Validator: config.EnumValidator(
				"badger", "memory",
			),
		},
		"path": config.DefaultEntry{
			Default:      "",
			NeedsRestart: true,
			Docs:         "Where the badger store keeps its files. Empty means »store« inside the repo.",
		},
		"compression": config.DefaultEntry{
			Default:      "snappy",
			NeedsRestart: false,
			Docs:         "What compression algorithm to apply to stored chunks.",
			Validator: config.EnumValidator(
				"snappy", "lz4", "none",
			),
		},
		"max_chunks": config.DefaultEntry{
			Default:      0,
			NeedsRestart: false,
			Docs: `How many chunks the memory backend may hold for ordinary writes.

  0 means no limit. Cache flushes may go beyond this by reserve_chunks.
  Only honored by the memory backend.
`,
		},
		"reserve_chunks": config.DefaultEntry{
			Default:      16,
			NeedsRestart: false,
			Docs:         "Extra chunk headroom for flushes once max_chunks is exhausted.",
		},
		"encryption": config.DefaultMapping{
			"enabled": config.DefaultEntry{
				Default:      false,
				NeedsRestart: true,
				Docs:         "Encrypt chunks before they go into the store. Needs a password on every run.",
			},
			"salt": config.DefaultEntry{
				Default:      "",
				NeedsRestart: true,
				Docs:         "Salt for deriving the chunk encryption key. Filled in by »init«.",
			},
		},
	},
}
