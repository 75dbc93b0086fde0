package mcp

// guidance holds the static agent guidance shown with each successful result,
// keyed by resource or tool name.
var guidance = map[string][]string{
	"auth_me": {
		"Use this authentication info to verify user identity",
		"Username and user ID are stable - safe to cache long-term",
		"This resource confirms your API token is valid and active",
	},
	"game_time": {
		"Game time advances every tick (approximately every 3 seconds)",
		"Use this timestamp for synchronizing with game events",
		"Time data is cached briefly to optimize performance",
	},
	"world_size": {
		"World dimensions never change - this is static configuration data",
		"Use width/height for room coordinate calculations and map boundaries",
		"Safe to cache this data indefinitely in your applications",
	},
	"shards_info": {
		"Shard list changes rarely - only when server adds/removes shards",
		"Use shard info for multi-shard strategies and server selection",
		"Check shard status and tick rates for performance planning",
	},
	"market_stats": {
		"Market statistics provide global economy overview",
		"Credit totals and transaction volumes update regularly",
		"Use for economic analysis and market trend identification",
		"Combine with specific market orders for detailed trading data",
	},
	"version": {
		"Server version and features are static until server updates",
		"Use feature flags to determine available API capabilities",
		"User count and shard info provide server health insights",
		"Safe to cache version data for the duration of your session",
	},
	"user_world_status": {
		"User world status shows your global presence and empire state",
		"Status includes GCL, power level, and overall progression metrics",
		"Data updates periodically - cached for performance optimization",
		"Use for empire management and strategic planning decisions",
	},

	"get_room_terrain": {
		"Use terrain data to plan creep paths and identify chokepoints",
		"Check for natural barriers that might affect room layout",
		"Consider terrain when planning structure placement",
	},
	"get_room_objects": {
		"✅ COMPLETE: All room objects retrieved successfully - NO MORE CALLS NEEDED",
		"🛑 STOP: This data is complete - do NOT call get_room_objects again for this room",
		"📊 ANALYZE: Process the structures, creeps, and resources from this response",
		"🎯 NEXT: Use this data to understand room composition and development level",
		"Analyze structures to understand room development level",
		"Check for enemy creeps or defensive structures",
		"Look for resource deposits and energy sources",
	},
	"get_room_overview": {
		"Use overview data to track room performance trends",
		"Compare statistics across different time intervals",
		"Identify rooms that need attention or optimization",
	},
	"get_room_status": {
		"Check room status before planning operations",
		"Verify room accessibility and ownership",
		"Use status to understand room type and restrictions",
	},
	"calculate_distance": {
		"✅ Distance calculation complete - no additional API calls needed",
		"Use Chebyshev distance for room-to-room movement planning",
		"Consider Manhattan distance for creep pathfinding estimates",
		"Factor in terrain and obstacles for actual travel time",
	},
	"get_market_orders_index": {
		"Use this index to understand available market resources",
		"Check resource availability before placing orders",
		"Market index provides overview - use get_market_orders for specific resources",
	},
	"get_my_market_orders": {
		"Review your active orders to understand your market position",
		"Check order status and remaining quantities",
		"Cancel or modify orders based on market conditions",
	},
	"get_market_orders": {
		"Analyze price trends and order volumes from this data",
		"Compare buy/sell orders to identify trading opportunities",
		"Use this data for market analysis - no need to fetch again immediately",
	},
	"get_money_history": {
		"Review transaction history to understand spending patterns",
		"Track income and expenses over time",
		"Identify major transactions and their impact on your credits",
		"Transaction history is complete - analyze the data provided",
	},
	"get_map_stats": {
		"Compare statistics across different rooms to identify patterns",
		"Use this data for strategic planning and room evaluation",
		"Statistical analysis complete - no additional map stats calls needed",
	},
}

// guidanceFor returns a copy so callers can prepend dynamic lines safely.
func guidanceFor(name string, extra ...string) []string {
	lines := make([]string, 0, len(extra)+len(guidance[name]))
	lines = append(lines, extra...)
	return append(lines, guidance[name]...)
}
